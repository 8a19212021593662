package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

type PgBroadcastRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgBroadcastRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgBroadcastRepository {
	return &PgBroadcastRepository{db: dbPool, logger: logger}
}

func (r *PgBroadcastRepository) Create(ctx context.Context, b *domain.Broadcast) error {
	query := `
		INSERT INTO broadcasts (id, campaign_id, from_number, message, recipients, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		b.ID, b.CampaignID, b.From, b.Message, b.Recipients, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting broadcast: %w", err)
	}

	r.logger.DebugContext(ctx, "Broadcast recorded", "id", b.ID, "recipients", len(b.Recipients))
	return nil
}

func (r *PgBroadcastRepository) MarkCompleted(ctx context.Context, id uuid.UUID, sent, failed int, completedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE broadcasts SET sent_count = $2, failed_count = $3, completed_at = $4 WHERE id = $1`,
		id, sent, failed, completedAt,
	)
	if err != nil {
		return fmt.Errorf("marking broadcast %s completed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
