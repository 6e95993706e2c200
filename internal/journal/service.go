package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/doctype"
	"github.com/vatdesk/vatdesk/internal/shared"
	"github.com/vatdesk/vatdesk/internal/vies"
)

// Repository is the persistence contract for journal entries. Create must
// perform the duplicate check atomically and return ErrDuplicateDocument on
// collision unless allowDuplicate is set.
type Repository interface {
	Create(ctx context.Context, entry Entry, allowDuplicate bool) (Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	ListByPeriod(ctx context.Context, companyID int64, journal Journal, period string) ([]Entry, error)
	Delete(ctx context.Context, id int64) error
}

// Verifier is the slice of the VIES client the journal needs.
type Verifier interface {
	Validate(ctx context.Context, vatNumber string) vies.Result
}

type Service struct {
	repo     Repository
	verifier Verifier
	rate     decimal.Decimal
	logger   *slog.Logger
}

// NewService wires the journal service. verifier may be nil (no enrichment);
// a zero rate falls back to the standard one.
func NewService(repo Repository, verifier Verifier, rate decimal.Decimal, logger *slog.Logger) *Service {
	if rate.IsZero() {
		rate = StandardVATRate
	}
	return &Service{repo: repo, verifier: verifier, rate: rate, logger: logger}
}

// Create validates and records one journal row. When the document type calls
// for it, the counterparty VAT number is checked against the EU registry; the
// verdict is stored on the entry but never blocks recording.
func (s *Service) Create(ctx context.Context, input EntryInput) (Entry, error) {
	entry, err := Validate(input, s.rate)
	if err != nil {
		return Entry{}, err
	}

	rule, err := ruleFor(entry.Journal, entry.DocumentType)
	if err != nil {
		return Entry{}, err
	}
	s.enrich(ctx, &entry, rule)

	created, err := s.repo.Create(ctx, entry, input.ConfirmDuplicate)
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("journal entry recorded",
		"entry_id", created.ID,
		"company_id", created.CompanyID,
		"journal", created.Journal,
		"period", created.Period,
		"document_type", created.DocumentType,
	)
	return created, nil
}

// enrich runs the advisory VIES check for foreign EU counterparties.
func (s *Service) enrich(ctx context.Context, entry *Entry, rule doctype.Rule) {
	if s.verifier == nil || !rule.VIESApplicable || entry.CounterpartyVAT == "" {
		return
	}
	if strings.HasPrefix(entry.CounterpartyVAT, "BG") {
		return
	}
	result := s.verifier.Validate(ctx, entry.CounterpartyVAT)
	if !result.Applicable {
		return
	}
	entry.VIESChecked = true
	if result.Unavailable {
		s.logger.Warn("vies check inconclusive",
			"counterparty_vat", entry.CounterpartyVAT, "error", result.Err)
		return
	}
	entry.VIESValid = result.Valid
	entry.VIESCompanyName = result.CompanyName
	if result.Valid != nil && !*result.Valid {
		s.logger.Warn("counterparty VAT number not confirmed by registry",
			"counterparty_vat", entry.CounterpartyVAT)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// ListByPeriod returns one company's journal rows for a period.
func (s *Service) ListByPeriod(ctx context.Context, companyID int64, journal Journal, period string) ([]Entry, error) {
	if err := shared.ValidatePeriod(period); err != nil {
		return nil, err
	}
	if journal != JournalPurchase && journal != JournalSales {
		return nil, shared.Validation("journal", string(journal), "must be purchase or sales")
	}
	return s.repo.ListByPeriod(ctx, companyID, journal, period)
}

// Delete removes a journal row, typically to correct a mis-keyed document.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting journal entry %d: %w", id, err)
	}
	return nil
}

// SummarizeByType rolls a company period up per document type, ordered by
// type code.
func (s *Service) SummarizeByType(ctx context.Context, companyID int64, journal Journal, period string) ([]TypeSummary, error) {
	entries, err := s.ListByPeriod(ctx, companyID, journal, period)
	if err != nil {
		return nil, err
	}
	byType := make(map[int]*TypeSummary)
	for _, e := range entries {
		summary, ok := byType[e.DocumentType]
		if !ok {
			rule, err := ruleFor(journal, e.DocumentType)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", e.ID, err)
			}
			summary = &TypeSummary{DocumentType: e.DocumentType, TypeName: rule.Name}
			byType[e.DocumentType] = summary
		}
		summary.Count++
		summary.TaxBase = summary.TaxBase.Add(e.TaxBase)
		summary.VATAmount = summary.VATAmount.Add(e.VATAmount)
	}
	out := make([]TypeSummary, 0, len(byType))
	for _, summary := range byType {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
	return out, nil
}
