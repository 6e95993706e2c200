package journal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

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
	r.Post("/journals/{journal}/entries", h.Create)
	r.Get("/journals/{journal}/entries", h.List)
	r.Get("/journals/{journal}/summary", h.Summary)
	r.Get("/journals/entries/{id}", h.Show)
	r.Delete("/journals/entries/{id}", h.Delete)
}

type createEntryRequest struct {
	CompanyID    int64  `json:"company_id" validate:"required,gt=0"`
	Period       string `json:"period" validate:"required,len=6,numeric"`
	DocumentType int    `json:"document_type" validate:"required,gt=0"`

	DocumentNumber string `json:"document_number" validate:"required,max=40"`
	DocumentDate   string `json:"document_date" validate:"required"`

	CounterpartyName string `json:"counterparty_name" validate:"max=255"`
	CounterpartyVAT  string `json:"counterparty_vat" validate:"max=20"`

	CustomsDocumentRef string `json:"customs_document_ref" validate:"max=60"`
	IntermediaryVAT    string `json:"intermediary_vat" validate:"max=20"`
	FinalCustomerVAT   string `json:"final_customer_vat" validate:"max=20"`
	ApplicationRef     string `json:"application_reference" validate:"max=60"`

	TaxBase       decimal.Decimal  `json:"tax_base"`
	VATAmount     *decimal.Decimal `json:"vat_amount"`
	TaxBaseZero   decimal.Decimal  `json:"tax_base_zero"`
	TaxBaseExempt decimal.Decimal  `json:"tax_base_exempt"`
	Total         *decimal.Decimal `json:"total"`

	Description string `json:"description" validate:"max=500"`

	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	journal, ok := parseJournal(chi.URLParam(r, "journal"))
	if !ok {
		shared.RespondError(w, h.logger, shared.Validation("journal", chi.URLParam(r, "journal"), "must be purchase or sales"))
		return
	}
	var req createEntryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	docDate, err := time.Parse("2006-01-02", req.DocumentDate)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("document_date", req.DocumentDate, "must be YYYY-MM-DD"))
		return
	}
	entry, err := h.service.Create(r.Context(), EntryInput{
		CompanyID:          req.CompanyID,
		Journal:            journal,
		Period:             req.Period,
		DocumentType:       req.DocumentType,
		DocumentNumber:     req.DocumentNumber,
		DocumentDate:       docDate,
		CounterpartyName:   req.CounterpartyName,
		CounterpartyVAT:    req.CounterpartyVAT,
		CustomsDocumentRef: req.CustomsDocumentRef,
		IntermediaryVAT:    req.IntermediaryVAT,
		FinalCustomerVAT:   req.FinalCustomerVAT,
		ApplicationRef:     req.ApplicationRef,
		TaxBase:            req.TaxBase,
		VATAmount:          req.VATAmount,
		TaxBaseZero:        req.TaxBaseZero,
		TaxBaseExempt:      req.TaxBaseExempt,
		Total:              req.Total,
		Description:        req.Description,
		ConfirmDuplicate:   req.ConfirmDuplicate,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	journal, ok := parseJournal(chi.URLParam(r, "journal"))
	if !ok {
		shared.RespondError(w, h.logger, shared.Validation("journal", chi.URLParam(r, "journal"), "must be purchase or sales"))
		return
	}
	companyID, period, err := queryScope(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	entries, err := h.service.ListByPeriod(r.Context(), companyID, journal, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	journal, ok := parseJournal(chi.URLParam(r, "journal"))
	if !ok {
		shared.RespondError(w, h.logger, shared.Validation("journal", chi.URLParam(r, "journal"), "must be purchase or sales"))
		return
	}
	companyID, period, err := queryScope(r)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	summaries, err := h.service.SummarizeByType(r.Context(), companyID, journal, period)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("id", chi.URLParam(r, "id"), "must be an integer"))
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("id", chi.URLParam(r, "id"), "must be an integer"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func parseJournal(raw string) (Journal, bool) {
	switch Journal(raw) {
	case JournalPurchase:
		return JournalPurchase, true
	case JournalSales:
		return JournalSales, true
	}
	return "", false
}

func queryScope(r *http.Request) (int64, string, error) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		return 0, "", shared.Validation("company_id", r.URL.Query().Get("company_id"), "must be a positive integer")
	}
	period := r.URL.Query().Get("period")
	if err := shared.ValidatePeriod(period); err != nil {
		return 0, "", err
	}
	return companyID, period, nil
}
