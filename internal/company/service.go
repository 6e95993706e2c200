package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vatdesk/vatdesk/internal/shared"
)

// Repository is the persistence contract for companies.
type Repository interface {
	Create(ctx context.Context, c Company) (Company, error)
	Get(ctx context.Context, id int64) (Company, error)
	GetByUIC(ctx context.Context, uic string) (Company, error)
	List(ctx context.Context, activeOnly bool) ([]Company, error)
	Update(ctx context.Context, c Company) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a filer. The domestic VAT number is always the UIC with a
// BG prefix; a caller-supplied number that says otherwise is rejected rather
// than silently corrected.
func (s *Service) Create(ctx context.Context, input CreateInput) (Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Company{}, shared.Validation("name", "", "required")
	}
	uic := strings.TrimSpace(input.UIC)
	if err := validateUIC(uic); err != nil {
		return Company{}, err
	}
	vat := strings.ToUpper(strings.TrimSpace(input.VATNumber))
	if vat == "" {
		vat = "BG" + uic
	} else if vat != "BG"+uic {
		return Company{}, shared.Validation("vat_number", vat, "must equal BG+UIC for domestic registration")
	}

	created, err := s.repo.Create(ctx, Company{
		Name:      name,
		UIC:       uic,
		VATNumber: vat,
		Address:   strings.TrimSpace(input.Address),
		Active:    true,
	})
	if err != nil {
		return Company{}, fmt.Errorf("creating company: %w", err)
	}
	s.logger.Info("company registered", "company_id", created.ID, "uic", created.UIC)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Company, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Company, error) {
	return s.repo.List(ctx, activeOnly)
}

// Update changes the mutable fields. UIC and VAT number are immutable; a
// re-registration is a new company.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Company, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Company{}, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		current.Name = name
	}
	if addr := strings.TrimSpace(input.Address); addr != "" {
		current.Address = addr
	}
	if input.Active != nil {
		current.Active = *input.Active
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return Company{}, fmt.Errorf("updating company %d: %w", id, err)
	}
	return current, nil
}

// validateUIC checks the 9-digit unified identification code.
func validateUIC(uic string) error {
	if len(uic) != 9 {
		return shared.Validation("uic", uic, "must be exactly 9 digits")
	}
	for _, r := range uic {
		if r < '0' || r > '9' {
			return shared.Validation("uic", uic, "must be exactly 9 digits")
		}
	}
	return nil
}
