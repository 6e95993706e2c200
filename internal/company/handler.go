package company

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
	r.Get("/companies", h.List)
	r.Post("/companies", h.Create)
	r.Get("/companies/{id}", h.Show)
	r.Patch("/companies/{id}", h.Update)
}

type createCompanyRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	UIC       string `json:"uic" validate:"required,len=9,numeric"`
	VATNumber string `json:"vat_number" validate:"omitempty,max=15"`
	Address   string `json:"address" validate:"max=500"`
}

type updateCompanyRequest struct {
	Name    string `json:"name" validate:"omitempty,max=255"`
	Address string `json:"address" validate:"omitempty,max=500"`
	Active  *bool  `json:"active"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		Name:      req.Name,
		UIC:       req.UIC,
		VATNumber: req.VATNumber,
		Address:   req.Address,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("id", chi.URLParam(r, "id"), "must be an integer"))
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	companies, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, companies)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, h.logger, shared.Validation("id", chi.URLParam(r, "id"), "must be an integer"))
		return
	}
	var req updateCompanyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:    req.Name,
		Address: req.Address,
		Active:  req.Active,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, updated)
}
