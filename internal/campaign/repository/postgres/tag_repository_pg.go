package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

type PgTagRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgTagRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgTagRepository {
	return &PgTagRepository{db: dbPool, logger: logger}
}

func (r *PgTagRepository) Create(ctx context.Context, tag domain.Tag) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tags (category, value) VALUES ($1, $2)`,
		tag.Category, tag.Value,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("inserting tag %s: %w", tag, err)
	}

	r.logger.DebugContext(ctx, "Tag created", "tag", tag.String())
	return nil
}

func (r *PgTagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT category, value FROM tags ORDER BY category, value`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.Category, &tag.Value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
