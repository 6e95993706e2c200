package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vatdesk/vatdesk/internal/company"
	"github.com/vatdesk/vatdesk/internal/declaration"
	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/shared"
)

// Handler serves submission-ready renders over HTTP.
type Handler struct {
	logger       *slog.Logger
	companies    *company.Service
	declarations *declaration.Service
	entries      declaration.EntrySource
}

func NewHandler(logger *slog.Logger, companies *company.Service, declarations *declaration.Service, entries declaration.EntrySource) *Handler {
	return &Handler{logger: logger, companies: companies, declarations: declarations, entries: entries}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/exports/declaration", h.Declaration)
	r.Get("/exports/eu-transactions", h.EUTransactions)
}

func (h *Handler) Declaration(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := h.scope(w, r)
	if !ok {
		return
	}
	c, err := h.companies.Get(r.Context(), companyID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	decl, err := h.declarations.GetByPeriod(r.Context(), companyID, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	doc := BuildDocument(c, decl)

	switch format := r.URL.Query().Get("format"); format {
	case "", "xml":
		body, err := doc.XML()
		if err != nil {
			shared.RespondError(w, h.logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", FileName("declaration", companyID, period, "xml")))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	case "json":
		body, err := doc.JSON()
		if err != nil {
			shared.RespondError(w, h.logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", FileName("declaration", companyID, period, "json")))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		shared.RespondError(w, h.logger, shared.Validation("format", format, "must be xml or json"))
	}
}

func (h *Handler) EUTransactions(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := h.scope(w, r)
	if !ok {
		return
	}
	purchases, err := h.entries.ListByPeriod(r.Context(), companyID, journal.JournalPurchase, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	sales, err := h.entries.ListByPeriod(r.Context(), companyID, journal.JournalSales, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	report, err := BuildEUTransactionsReport(companyID, period, purchases, sales)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		shared.RespondError(w, h.logger, shared.Validation("company_id", r.URL.Query().Get("company_id"), "must be a positive integer"))
		return 0, "", false
	}
	period := r.URL.Query().Get("period")
	if err := shared.ValidatePeriod(period); err != nil {
		shared.RespondError(w, h.logger, err)
		return 0, "", false
	}
	return companyID, period, true
}
