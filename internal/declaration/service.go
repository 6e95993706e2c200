package declaration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/shared"
)

// Repository is the persistence contract for declarations, keyed by company
// and period.
type Repository interface {
	Upsert(ctx context.Context, d Declaration) (Declaration, error)
	Get(ctx context.Context, id int64) (Declaration, error)
	GetByPeriod(ctx context.Context, companyID int64, period string) (Declaration, error)
	Update(ctx context.Context, d Declaration) error
	Delete(ctx context.Context, id int64) error
	ListByCompany(ctx context.Context, companyID int64) ([]Declaration, error)
}

// EntrySource supplies the journal rows to aggregate. *journal.Service and
// journal.Repository both satisfy it.
type EntrySource interface {
	ListByPeriod(ctx context.Context, companyID int64, j journal.Journal, period string) ([]journal.Entry, error)
}

type Service struct {
	repo    Repository
	entries EntrySource
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, entries EntrySource, logger *slog.Logger) *Service {
	return &Service{repo: repo, entries: entries, logger: logger, now: time.Now}
}

// Generate aggregates the period's journals and writes the declaration. A
// DRAFT declaration for the same company+period is fully overwritten; a
// SUBMITTED or PAID one must be reverted first.
func (s *Service) Generate(ctx context.Context, companyID int64, period string) (Declaration, error) {
	if companyID <= 0 {
		return Declaration{}, shared.Validation("company_id", "", "required")
	}
	if err := shared.ValidatePeriod(period); err != nil {
		return Declaration{}, err
	}

	existing, err := s.repo.GetByPeriod(ctx, companyID, period)
	switch {
	case err == nil:
		if existing.Status != StatusDraft {
			return Declaration{}, fmt.Errorf("declaration %d is %s: %w", existing.ID, existing.Status, shared.ErrImmutableState)
		}
	case errors.Is(err, shared.ErrNotFound):
		// First generation for the period.
	default:
		return Declaration{}, err
	}

	purchases, err := s.entries.ListByPeriod(ctx, companyID, journal.JournalPurchase, period)
	if err != nil {
		return Declaration{}, fmt.Errorf("reading purchase journal: %w", err)
	}
	sales, err := s.entries.ListByPeriod(ctx, companyID, journal.JournalSales, period)
	if err != nil {
		return Declaration{}, fmt.Errorf("reading sales journal: %w", err)
	}

	totals, err := Aggregate(purchases, sales)
	if err != nil {
		return Declaration{}, err
	}
	fields := Calculate(totals)

	deadline, err := PaymentDeadline(period)
	if err != nil {
		return Declaration{}, err
	}

	decl := Declaration{
		CompanyID:       companyID,
		Period:          period,
		Status:          StatusDraft,
		Fields:          fields,
		PaymentDue:      fields.PaymentDue(),
		RefundDue:       fields.RefundDueAmount(),
		PaymentDeadline: deadline,
	}
	saved, err := s.repo.Upsert(ctx, decl)
	if err != nil {
		return Declaration{}, fmt.Errorf("storing declaration: %w", err)
	}

	s.logger.Info("declaration generated",
		"declaration_id", saved.ID,
		"company_id", companyID,
		"period", period,
		"entries", totals.PurchaseCount+totals.SalesCount,
		"payment_due", saved.PaymentDue.String(),
		"refund_due", saved.RefundDue.String(),
		"null_declaration", fields.IsNull(),
	)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Declaration, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByPeriod(ctx context.Context, companyID int64, period string) (Declaration, error) {
	if err := shared.ValidatePeriod(period); err != nil {
		return Declaration{}, err
	}
	return s.repo.GetByPeriod(ctx, companyID, period)
}

func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Declaration, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// Submit files a DRAFT declaration. submissionRef is the reference returned
// by the filing channel; when empty a placeholder reference is minted so the
// filing is still traceable.
func (s *Service) Submit(ctx context.Context, id int64, submissionRef string) (Declaration, error) {
	decl, err := s.repo.Get(ctx, id)
	if err != nil {
		return Declaration{}, err
	}
	if decl.Status != StatusDraft {
		return Declaration{}, transitionErr(decl.Status, "submit")
	}
	if decl.PaymentDeadline.IsZero() {
		return Declaration{}, fmt.Errorf("declaration %d has no payment deadline: %w", id, shared.ErrInvalidTransition)
	}
	if submissionRef == "" {
		submissionRef = uuid.NewString()
	}
	now := s.now().UTC()
	decl.Status = StatusSubmitted
	decl.SubmittedAt = &now
	decl.SubmissionRef = submissionRef
	if err := s.repo.Update(ctx, decl); err != nil {
		return Declaration{}, err
	}
	s.logger.Info("declaration submitted", "declaration_id", id, "submission_ref", submissionRef)
	return decl, nil
}

// Revert takes a SUBMITTED declaration back to DRAFT, erasing the submission
// metadata so it can be regenerated.
func (s *Service) Revert(ctx context.Context, id int64) (Declaration, error) {
	decl, err := s.repo.Get(ctx, id)
	if err != nil {
		return Declaration{}, err
	}
	if decl.Status != StatusSubmitted {
		return Declaration{}, transitionErr(decl.Status, "revert")
	}
	decl.Status = StatusDraft
	decl.SubmittedAt = nil
	decl.SubmissionRef = ""
	if err := s.repo.Update(ctx, decl); err != nil {
		return Declaration{}, err
	}
	s.logger.Info("declaration reverted to draft", "declaration_id", id)
	return decl, nil
}

// MarkPaid closes a SUBMITTED declaration. PAID is terminal.
func (s *Service) MarkPaid(ctx context.Context, id int64) (Declaration, error) {
	decl, err := s.repo.Get(ctx, id)
	if err != nil {
		return Declaration{}, err
	}
	if decl.Status != StatusSubmitted {
		return Declaration{}, transitionErr(decl.Status, "markPaid")
	}
	now := s.now().UTC()
	decl.Status = StatusPaid
	decl.PaidAt = &now
	if err := s.repo.Update(ctx, decl); err != nil {
		return Declaration{}, err
	}
	s.logger.Info("declaration marked paid", "declaration_id", id)
	return decl, nil
}

// Delete removes a DRAFT declaration. Filed declarations are immutable.
func (s *Service) Delete(ctx context.Context, id int64) error {
	decl, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if decl.Status != StatusDraft {
		return fmt.Errorf("declaration %d is %s: %w", id, decl.Status, shared.ErrImmutableState)
	}
	return s.repo.Delete(ctx, id)
}

func transitionErr(from Status, action string) error {
	return fmt.Errorf("cannot %s a %s declaration: %w", action, from, shared.ErrInvalidTransition)
}
