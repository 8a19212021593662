package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

type PgAssignedNumberRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgAssignedNumberRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgAssignedNumberRepository {
	return &PgAssignedNumberRepository{db: dbPool, logger: logger}
}

const assignedNumberColumns = `id, campaign_id, phone_number, kind, script_kind, script_value`

func (r *PgAssignedNumberRepository) GetByNumber(ctx context.Context, phoneNumber string) (*domain.AssignedNumber, error) {
	query := `SELECT ` + assignedNumberColumns + ` FROM assigned_numbers WHERE phone_number = $1`

	assigned, err := scanAssignedNumber(r.db.QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying assigned number %s: %w", phoneNumber, err)
	}
	return assigned, nil
}

func (r *PgAssignedNumberRepository) List(ctx context.Context) ([]domain.AssignedNumber, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assignedNumberColumns+` FROM assigned_numbers ORDER BY phone_number`)
	if err != nil {
		return nil, fmt.Errorf("querying assigned numbers: %w", err)
	}
	defer rows.Close()

	var assigned []domain.AssignedNumber
	for rows.Next() {
		a, err := scanAssignedNumber(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assigned number: %w", err)
		}
		assigned = append(assigned, *a)
	}
	return assigned, rows.Err()
}

func scanAssignedNumber(row pgx.Row) (*domain.AssignedNumber, error) {
	var a domain.AssignedNumber
	var kind, scriptKind string
	if err := row.Scan(&a.ID, &a.CampaignID, &a.PhoneNumber, &kind, &scriptKind, &a.ScriptValue); err != nil {
		return nil, err
	}
	a.Kind = domain.RingKind(kind)
	a.ScriptKind = domain.ScriptKind(scriptKind)
	return &a, nil
}
