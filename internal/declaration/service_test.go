package declaration

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Declaration
}

var _ Repository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Declaration)}
}

func (m *memoryRepo) Upsert(_ context.Context, d Declaration) (Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.items {
		if existing.CompanyID == d.CompanyID && existing.Period == d.Period {
			d.ID = id
			d.CreatedAt = existing.CreatedAt
			d.UpdatedAt = time.Now().UTC()
			m.items[id] = d
			return d, nil
		}
	}
	m.nextID++
	d.ID = m.nextID
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	m.items[d.ID] = d
	return d, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return Declaration{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryRepo) GetByPeriod(_ context.Context, companyID int64, period string) (Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.items {
		if d.CompanyID == companyID && d.Period == period {
			return d, nil
		}
	}
	return Declaration{}, shared.ErrNotFound
}

func (m *memoryRepo) Update(_ context.Context, d Declaration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[d.ID]; !ok {
		return shared.ErrNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	m.items[d.ID] = d
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) ListByCompany(_ context.Context, companyID int64) ([]Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Declaration
	for _, d := range m.items {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memoryEntries struct {
	mu      sync.Mutex
	entries []journal.Entry
}

var _ EntrySource = (*memoryEntries)(nil)

func (m *memoryEntries) ListByPeriod(_ context.Context, companyID int64, j journal.Journal, period string) ([]journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []journal.Entry
	for _, e := range m.entries {
		if e.CompanyID == companyID && e.Journal == j && e.Period == period {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEntries) add(entries ...journal.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

func newTestService() (*Service, *memoryRepo, *memoryEntries) {
	repo := newMemoryRepo()
	entries := &memoryEntries{}
	svc := NewService(repo, entries, slog.New(slog.DiscardHandler))
	return svc, repo, entries
}

func TestGenerateEndToEnd(t *testing.T) {
	svc, _, entries := newTestService()
	sale := salesEntry(1, 1, "1000.00", "200.00")
	sale.Period = "202409"
	purchase := purchaseEntry(2, 1, "500.00", "100.00")
	purchase.Period = "202409"
	entries.add(sale, purchase)

	decl, err := svc.Generate(context.Background(), 1, "202409")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, decl.Status)
	require.True(t, decl.Fields.SalesVAT.Equal(dec("200.00")))
	require.True(t, decl.Fields.DeductibleVAT.Equal(dec("100.00")))
	require.True(t, decl.PaymentDue.Equal(dec("100.00")))
	require.True(t, decl.RefundDue.IsZero())
	require.Equal(t, time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC), decl.PaymentDeadline)
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, _, entries := newTestService()
	entries.add(salesEntry(1, 1, "100.00", "20.00"), salesEntry(2, 2, "300.00", "0.00"))

	first, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "regeneration overwrites the same row")
	require.Equal(t, first.Fields, second.Fields)
	require.Equal(t, first.PaymentDue, second.PaymentDue)
	require.Equal(t, first.PaymentDeadline, second.PaymentDeadline)
}

func TestGenerateReflectsEntryChanges(t *testing.T) {
	svc, _, entries := newTestService()
	entries.add(salesEntry(1, 1, "100.00", "20.00"))

	first, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	require.True(t, first.PaymentDue.Equal(dec("20.00")))

	entries.add(purchaseEntry(2, 1, "250.00", "50.00"))
	second, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	require.True(t, second.RefundDue.Equal(dec("30.00")))
	require.True(t, second.PaymentDue.IsZero())
}

func TestGenerateNullDeclaration(t *testing.T) {
	svc, _, _ := newTestService()
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	require.True(t, decl.Fields.IsNull())

	// Null declarations are still submittable.
	submitted, err := svc.Submit(context.Background(), decl.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.NotEmpty(t, submitted.SubmissionRef)
}

func TestGenerateAbortsOnCorruptEntry(t *testing.T) {
	svc, _, entries := newTestService()
	entries.add(purchaseEntry(1, 8, "100.00", "20.00"))
	_, err := svc.Generate(context.Background(), 1, "202401")
	require.ErrorIs(t, err, shared.ErrAggregationIntegrity)
}

func TestGenerateSubmittedFailsImmutable(t *testing.T) {
	svc, _, _ := newTestService()
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), decl.ID, "NAP-REF-1")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), 1, "202401")
	require.ErrorIs(t, err, shared.ErrImmutableState)
}

func TestSubmitCapturesReference(t *testing.T) {
	svc, _, _ := newTestService()
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), decl.ID, "NAP-2024-00042")
	require.NoError(t, err)
	require.Equal(t, "NAP-2024-00042", submitted.SubmissionRef)
	require.NotNil(t, submitted.SubmittedAt)
}

func TestStateMachineTransitions(t *testing.T) {
	svc, _, _ := newTestService()
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)

	// DRAFT cannot be reverted or paid.
	_, err = svc.Revert(context.Background(), decl.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.MarkPaid(context.Background(), decl.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	submitted, err := svc.Submit(context.Background(), decl.ID, "")
	require.NoError(t, err)

	// SUBMITTED cannot be submitted again.
	_, err = svc.Submit(context.Background(), submitted.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	paid, err := svc.MarkPaid(context.Background(), submitted.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// PAID is terminal.
	_, err = svc.Submit(context.Background(), paid.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.Revert(context.Background(), paid.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.MarkPaid(context.Background(), paid.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestRevertClearsSubmissionMetadata(t *testing.T) {
	svc, _, entries := newTestService()
	entries.add(salesEntry(1, 1, "100.00", "20.00"))
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), decl.ID, "NAP-REF")
	require.NoError(t, err)

	reverted, err := svc.Revert(context.Background(), decl.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, reverted.Status)
	require.Nil(t, reverted.SubmittedAt)
	require.Empty(t, reverted.SubmissionRef)

	// Regeneration works again after revert.
	_, err = svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
}

func TestDeleteOnlyDraft(t *testing.T) {
	svc, repo, _ := newTestService()
	decl, err := svc.Generate(context.Background(), 1, "202401")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), decl.ID, "")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), decl.ID)
	require.ErrorIs(t, err, shared.ErrImmutableState)

	_, err = svc.Revert(context.Background(), decl.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), decl.ID))
	_, err = repo.Get(context.Background(), decl.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
