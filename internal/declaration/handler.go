package declaration

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vatdesk/vatdesk/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/declarations/generate", h.Generate)
	r.Get("/declarations", h.List)
	r.Get("/declarations/{id}", h.Show)
	r.Post("/declarations/{id}/submit", h.Submit)
	r.Post("/declarations/{id}/revert", h.Revert)
	r.Post("/declarations/{id}/pay", h.MarkPaid)
	r.Delete("/declarations/{id}", h.Delete)
}

type generateRequest struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	Period    string `json:"period" validate:"required,len=6,numeric"`
}

type submitRequest struct {
	SubmissionRef string `json:"submission_ref" validate:"max=100"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	decl, err := h.service.Generate(r.Context(), req.CompanyID, req.Period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, decl)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		shared.RespondError(w, h.logger, shared.Validation("company_id", r.URL.Query().Get("company_id"), "must be a positive integer"))
		return
	}
	if period := r.URL.Query().Get("period"); period != "" {
		decl, err := h.service.GetByPeriod(r.Context(), companyID, period)
		if err != nil {
			shared.RespondError(w, h.logger, err)
			return
		}
		shared.RespondJSON(w, http.StatusOK, []Declaration{decl})
		return
	}
	declarations, err := h.service.ListByCompany(r.Context(), companyID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, declarations)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	decl, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, decl)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondError(w, h.logger, err)
			return
		}
	}
	decl, err := h.service.Submit(r.Context(), id, req.SubmissionRef)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, decl)
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	decl, err := h.service.Revert(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, decl)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	decl, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, decl)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("id", chi.URLParam(r, "id"), "must be an integer"))
		return 0, false
	}
	return id, true
}
