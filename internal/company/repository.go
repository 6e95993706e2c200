package company

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

func (r *pgRepository) Create(ctx context.Context, c Company) (Company, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO companies (name, uic, vat_number, address, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, c.Name, c.UIC, c.VATNumber, c.Address, c.Active, now).Scan(&c.ID)
	if err != nil {
		return Company{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Company, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, name, uic, vat_number, address, active, created_at, updated_at
		FROM companies WHERE id = $1
	`, id))
}

func (r *pgRepository) GetByUIC(ctx context.Context, uic string) (Company, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, name, uic, vat_number, address, active, created_at, updated_at
		FROM companies WHERE uic = $1
	`, uic))
}

func (r *pgRepository) List(ctx context.Context, activeOnly bool) ([]Company, error) {
	query := `SELECT id, name, uic, vat_number, address, active, created_at, updated_at FROM companies`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &c.Name, &c.UIC, &c.VATNumber, &c.Address, &c.Active, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			c.UpdatedAt = updatedAt.Time
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, c Company) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE companies SET name = $2, address = $3, active = $4, updated_at = now()
		WHERE id = $1
	`, c.ID, c.Name, c.Address, c.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) scanOne(row pgx.Row) (Company, error) {
	var c Company
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&c.ID, &c.Name, &c.UIC, &c.VATNumber, &c.Address, &c.Active, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, shared.ErrNotFound
	}
	if err != nil {
		return Company{}, err
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return c, nil
}
