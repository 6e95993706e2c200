package declaration

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
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

const declColumns = `id, company_id, period, status,
	field_09, field_10, field_11, field_12, field_13, field_14, field_15, field_16, field_17,
	field_18, field_19, field_41, field_42, field_50, field_60, field_70, field_71, field_80,
	field_81, field_82, payment_due, refund_due, payment_deadline,
	submitted_at, submission_ref, paid_at, created_at, updated_at`

// Upsert writes the declaration for (company, period), overwriting the field
// values of an existing row. Status and submission metadata are reset to the
// incoming values, so callers must gate on status before regenerating.
func (r *pgRepository) Upsert(ctx context.Context, d Declaration) (Declaration, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vat_declarations (
			company_id, period, status,
			field_09, field_10, field_11, field_12, field_13, field_14, field_15, field_16, field_17,
			field_18, field_19, field_41, field_42, field_50, field_60, field_70, field_71, field_80,
			field_81, field_82, payment_due, refund_due, payment_deadline,
			submitted_at, submission_ref, paid_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $30
		)
		ON CONFLICT (company_id, period) DO UPDATE SET
			status = EXCLUDED.status,
			field_09 = EXCLUDED.field_09, field_10 = EXCLUDED.field_10, field_11 = EXCLUDED.field_11,
			field_12 = EXCLUDED.field_12, field_13 = EXCLUDED.field_13, field_14 = EXCLUDED.field_14,
			field_15 = EXCLUDED.field_15, field_16 = EXCLUDED.field_16, field_17 = EXCLUDED.field_17,
			field_18 = EXCLUDED.field_18, field_19 = EXCLUDED.field_19, field_41 = EXCLUDED.field_41,
			field_42 = EXCLUDED.field_42, field_50 = EXCLUDED.field_50, field_60 = EXCLUDED.field_60,
			field_70 = EXCLUDED.field_70, field_71 = EXCLUDED.field_71, field_80 = EXCLUDED.field_80,
			field_81 = EXCLUDED.field_81, field_82 = EXCLUDED.field_82,
			payment_due = EXCLUDED.payment_due, refund_due = EXCLUDED.refund_due,
			payment_deadline = EXCLUDED.payment_deadline,
			submitted_at = EXCLUDED.submitted_at, submission_ref = EXCLUDED.submission_ref,
			paid_at = EXCLUDED.paid_at, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`,
		d.CompanyID, d.Period, string(d.Status),
		d.Fields.TaxableBaseStandard, d.Fields.VATStandard, d.Fields.TaxableBaseZero,
		d.Fields.ExemptBase, d.Fields.ICDBase, d.Fields.ExportBase, d.Fields.AbroadBase,
		d.Fields.DistanceBase, d.Fields.DistanceVAT, d.Fields.ICABase, d.Fields.ICAVAT,
		d.Fields.TotalTaxBase, d.Fields.TotalVATDue, d.Fields.SalesVAT, d.Fields.DeductibleVAT,
		d.Fields.VATDue, d.Fields.VATRefundable, d.Fields.RefundAmount, d.Fields.PayAmount,
		d.Fields.RefundDue, d.PaymentDue, d.RefundDue, d.PaymentDeadline,
		d.SubmittedAt, d.SubmissionRef, d.PaidAt, now,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Declaration{}, err
	}
	d.UpdatedAt = now
	return d, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Declaration, error) {
	return scanDeclaration(r.pool.QueryRow(ctx,
		`SELECT `+declColumns+` FROM vat_declarations WHERE id = $1`, id))
}

func (r *pgRepository) GetByPeriod(ctx context.Context, companyID int64, period string) (Declaration, error) {
	return scanDeclaration(r.pool.QueryRow(ctx,
		`SELECT `+declColumns+` FROM vat_declarations WHERE company_id = $1 AND period = $2`,
		companyID, period))
}

func (r *pgRepository) Update(ctx context.Context, d Declaration) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vat_declarations SET
			status = $2, submitted_at = $3, submission_ref = $4, paid_at = $5, updated_at = now()
		WHERE id = $1
	`, d.ID, string(d.Status), d.SubmittedAt, d.SubmissionRef, d.PaidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vat_declarations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ListByCompany(ctx context.Context, companyID int64) ([]Declaration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+declColumns+` FROM vat_declarations WHERE company_id = $1 ORDER BY period DESC`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var declarations []Declaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, err
		}
		declarations = append(declarations, d)
	}
	return declarations, rows.Err()
}

func scanDeclaration(row pgx.Row) (Declaration, error) {
	var d Declaration
	var status string
	var submittedAt, paidAt pgtype.Timestamptz
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.Period, &status,
		&d.Fields.TaxableBaseStandard, &d.Fields.VATStandard, &d.Fields.TaxableBaseZero,
		&d.Fields.ExemptBase, &d.Fields.ICDBase, &d.Fields.ExportBase, &d.Fields.AbroadBase,
		&d.Fields.DistanceBase, &d.Fields.DistanceVAT, &d.Fields.ICABase, &d.Fields.ICAVAT,
		&d.Fields.TotalTaxBase, &d.Fields.TotalVATDue, &d.Fields.SalesVAT, &d.Fields.DeductibleVAT,
		&d.Fields.VATDue, &d.Fields.VATRefundable, &d.Fields.RefundAmount, &d.Fields.PayAmount,
		&d.Fields.RefundDue, &d.PaymentDue, &d.RefundDue, &d.PaymentDeadline,
		&submittedAt, &d.SubmissionRef, &paidAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Declaration{}, shared.ErrNotFound
	}
	if err != nil {
		return Declaration{}, err
	}
	d.Status = Status(status)
	if submittedAt.Valid {
		t := submittedAt.Time
		d.SubmittedAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		d.PaidAt = &t
	}
	return d, nil
}
