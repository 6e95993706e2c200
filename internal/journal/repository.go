package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vatdesk/vatdesk/internal/shared"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*pgRepository)(nil)

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const entryColumns = `id, company_id, journal, period, document_type, document_number, document_date,
	counterparty_name, counterparty_vat, customs_document_ref, intermediary_vat, final_customer_vat,
	application_ref, tax_base, vat_amount, tax_base_zero, tax_base_exempt, total, description,
	vies_checked, vies_valid, vies_company_name, created_at`

// Create inserts an entry with an atomic duplicate guard. Under READ
// COMMITTED two racing intakes of the same document would each miss the
// other's uncommitted row, so the conditional INSERT runs in a transaction
// that first takes an advisory lock on the document identity. Serialised
// behind the lock, the loser sees the winner's committed row and reports
// the duplicate.
func (r *pgRepository) Create(ctx context.Context, entry Entry, allowDuplicate bool) (Entry, error) {
	now := time.Now().UTC()
	args := []any{
		entry.CompanyID, string(entry.Journal), entry.Period, entry.DocumentType,
		entry.DocumentNumber, entry.DocumentDate,
		entry.CounterpartyName, entry.CounterpartyVAT,
		entry.CustomsDocumentRef, entry.IntermediaryVAT, entry.FinalCustomerVAT, entry.ApplicationRef,
		entry.TaxBase, entry.VATAmount, entry.TaxBaseZero, entry.TaxBaseExempt, entry.Total,
		entry.Description, entry.VIESChecked, entry.VIESValid, entry.VIESCompanyName, now,
	}

	query := `
		INSERT INTO journal_entries (
			company_id, journal, period, document_type, document_number, document_date,
			counterparty_name, counterparty_vat, customs_document_ref, intermediary_vat,
			final_customer_vat, application_ref, tax_base, vat_amount, tax_base_zero,
			tax_base_exempt, total, description, vies_checked, vies_valid, vies_company_name, created_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22`
	if !allowDuplicate {
		query += `
		WHERE NOT EXISTS (
			SELECT 1 FROM journal_entries
			WHERE company_id = $1 AND journal = $2 AND period = $3 AND document_number = $5
			  AND COALESCE(NULLIF(counterparty_vat, ''), counterparty_name) = COALESCE(NULLIF($8, ''), $7)
		)`
	}
	query += `
		RETURNING id`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Taken even for confirmed re-entries, so a confirmed insert cannot race
	// an unconfirmed one for the same document.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entry.intakeLockKey()); err != nil {
		return Entry{}, err
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&entry.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrDuplicateDocument
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Entry{}, shared.ErrDuplicateDocument
	}
	if err != nil {
		return Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	entry.CreatedAt = now
	return entry, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrNotFound
	}
	return entry, err
}

func (r *pgRepository) ListByPeriod(ctx context.Context, companyID int64, journal Journal, period string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM journal_entries
		WHERE company_id = $1 AND journal = $2 AND period = $3
		ORDER BY document_date, document_number, id
	`, companyID, string(journal), period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var journal string
	err := row.Scan(
		&e.ID, &e.CompanyID, &journal, &e.Period, &e.DocumentType, &e.DocumentNumber, &e.DocumentDate,
		&e.CounterpartyName, &e.CounterpartyVAT, &e.CustomsDocumentRef, &e.IntermediaryVAT,
		&e.FinalCustomerVAT, &e.ApplicationRef, &e.TaxBase, &e.VATAmount, &e.TaxBaseZero,
		&e.TaxBaseExempt, &e.Total, &e.Description, &e.VIESChecked, &e.VIESValid,
		&e.VIESCompanyName, &e.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.Journal = Journal(journal)
	return e, nil
}
