package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vatdesk/vatdesk/internal/company"
	"github.com/vatdesk/vatdesk/internal/declaration"
	"github.com/vatdesk/vatdesk/internal/export"
	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/observability"
	"github.com/vatdesk/vatdesk/jobs"
)

// RouterParams carries the handlers mounted on the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CompanyHandler     *company.Handler
	JournalHandler     *journal.Handler
	DeclarationHandler *declaration.Handler
	ExportHandler      *export.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with vatdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.CompanyHandler != nil {
		params.CompanyHandler.MountRoutes(r)
	}
	if params.JournalHandler != nil {
		params.JournalHandler.MountRoutes(r)
	}
	if params.DeclarationHandler != nil {
		params.DeclarationHandler.MountRoutes(r)
	}
	if params.ExportHandler != nil {
		params.ExportHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
