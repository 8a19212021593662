package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

const uniqueViolationCode = "23505"

type PgRingerRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgRingerRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgRingerRepository {
	return &PgRingerRepository{db: dbPool, logger: logger}
}

func (r *PgRingerRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Ringer, error) {
	query := `SELECT id, phone_number, created_at FROM ringers WHERE phone_number = $1`

	var ringer domain.Ringer
	err := r.db.QueryRow(ctx, query, phoneNumber).Scan(&ringer.ID, &ringer.PhoneNumber, &ringer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying ringer by phone: %w", err)
	}

	tags, err := r.tagsFor(ctx, ringer.ID)
	if err != nil {
		return nil, err
	}
	ringer.Tags = tags
	return &ringer, nil
}

func (r *PgRingerRepository) Create(ctx context.Context, ringer *domain.Ringer) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning ringer create tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO ringers (id, phone_number, created_at) VALUES ($1, $2, $3)`,
		ringer.ID, ringer.PhoneNumber, ringer.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("inserting ringer: %w", err)
	}

	for _, tag := range ringer.Tags {
		if err := insertRingerTag(ctx, tx, ringer.ID, tag); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing ringer create tx: %w", err)
	}

	r.logger.DebugContext(ctx, "Ringer created", "id", ringer.ID, "phone", ringer.PhoneNumber, "tags", len(ringer.Tags))
	return nil
}

func (r *PgRingerRepository) AddTags(ctx context.Context, ringerID uuid.UUID, tags []domain.Tag) error {
	for _, tag := range tags {
		if err := insertRingerTag(ctx, r.db, ringerID, tag); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRingerTag(ctx context.Context, q execer, ringerID uuid.UUID, tag domain.Tag) error {
	_, err := q.Exec(ctx,
		`INSERT INTO ringer_tags (ringer_id, category, value) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		ringerID, tag.Category, tag.Value,
	)
	if err != nil {
		return fmt.Errorf("inserting ringer tag %s: %w", tag, err)
	}
	return nil
}

func (r *PgRingerRepository) tagsFor(ctx context.Context, ringerID uuid.UUID) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, value FROM ringer_tags WHERE ringer_id = $1 ORDER BY category, value`,
		ringerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ringer tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.Category, &tag.Value); err != nil {
			return nil, fmt.Errorf("scanning ringer tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
