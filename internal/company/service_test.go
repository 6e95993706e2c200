package company

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vatdesk/vatdesk/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Company
}

var _ Repository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Company)}
}

func (m *memoryRepo) Create(_ context.Context, c Company) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.items[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) GetByUIC(_ context.Context, uic string) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.UIC == uic {
			return c, nil
		}
	}
	return Company{}, shared.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, activeOnly bool) ([]Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Company
	for _, c := range m.items {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, c Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.ID]; !ok {
		return shared.ErrNotFound
	}
	m.items[c.ID] = c
	return nil
}

func newTestService() *Service {
	return NewService(newMemoryRepo(), slog.New(slog.DiscardHandler))
}

func TestCreateDerivesVATNumber(t *testing.T) {
	svc := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme OOD", UIC: "175074752"})
	require.NoError(t, err)
	require.Equal(t, "BG175074752", created.VATNumber)
	require.True(t, created.Active)
}

func TestCreateRejectsMismatchedVATNumber(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{
		Name: "Acme OOD", UIC: "175074752", VATNumber: "BG999999999",
	})
	require.True(t, shared.IsValidation(err))
}

func TestCreateAcceptsMatchingVATNumber(t *testing.T) {
	svc := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{
		Name: "Acme OOD", UIC: "175074752", VATNumber: "bg175074752",
	})
	require.NoError(t, err)
	require.Equal(t, "BG175074752", created.VATNumber)
}

func TestCreateRejectsBadUIC(t *testing.T) {
	svc := newTestService()
	for _, uic := range []string{"", "12345678", "1234567890", "12345678A"} {
		_, err := svc.Create(context.Background(), CreateInput{Name: "X", UIC: uic})
		require.True(t, shared.IsValidation(err), "uic %q", uic)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	svc := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme OOD", UIC: "175074752"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
		Name: "Acme EOOD", Active: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, "Acme EOOD", updated.Name)
	require.False(t, updated.Active)
	require.Equal(t, created.UIC, updated.UIC)
	require.Equal(t, created.VATNumber, updated.VATNumber)
}

func TestUpdateMissingCompany(t *testing.T) {
	svc := newTestService()
	_, err := svc.Update(context.Background(), 42, UpdateInput{Name: "X"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
