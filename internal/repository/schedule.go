package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/microcred/lendbook/internal/domain"
)

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.ScheduleEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO schedule_entries (id, loan_id, due_date, principal, interest, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.LoanID, e.DueDate, e.Principal, e.Interest, e.Total, e.Status,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetByLoan(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, loan_id, due_date, principal, interest, total, status
		FROM schedule_entries WHERE loan_id = $1`, loanID,
	)

	var e domain.ScheduleEntry
	err := row.Scan(&e.ID, &e.LoanID, &e.DueDate, &e.Principal, &e.Interest, &e.Total, &e.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByLoan: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByLoan: %w", err)
	}
	return &e, nil
}

func (r *ScheduleRepository) SetStatusByLoan(ctx context.Context, tx *sql.Tx, loanID uuid.UUID, status domain.ScheduleEntryStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE schedule_entries SET status = $1 WHERE loan_id = $2`,
		status, loanID,
	)
	if err != nil {
		return fmt.Errorf("SetStatusByLoan: %w", err)
	}
	return nil
}
