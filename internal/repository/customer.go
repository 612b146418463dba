package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/microcred/lendbook/internal/domain"
)

const customerColumns = `id, name, credit_score, late_payment_count, late_payment_points, version, created_at`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, credit_score, late_payment_count, late_payment_points, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.CreditScore, c.LatePaymentCount, c.LatePaymentPoints, c.Version, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// GetForUpdate locks the customer row so credit mutations for one customer
// serialize even when their loans are paid concurrently.
func (r *CustomerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Customer, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) UpdateCredit(ctx context.Context, tx *sql.Tx, c *domain.Customer, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE customers SET credit_score = $1, late_payment_count = $2, late_payment_points = $3, version = $4
		WHERE id = $5 AND version = $6`,
		c.CreditScore, c.LatePaymentCount, c.LatePaymentPoints, newVersion, c.ID, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateCredit: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateCredit: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateCredit: %w", domain.ErrVersionConflict)
	}

	c.Version = newVersion
	return nil
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(
		&c.ID, &c.Name, &c.CreditScore, &c.LatePaymentCount, &c.LatePaymentPoints, &c.Version, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
