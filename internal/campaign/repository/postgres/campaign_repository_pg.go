package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

type PgCampaignRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgCampaignRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgCampaignRepository {
	return &PgCampaignRepository{db: dbPool, logger: logger}
}

func (r *PgCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := `SELECT id, title, created_at, most_recent_broadcast FROM campaigns WHERE id = $1`

	var c domain.Campaign
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.MostRecentBroadcast)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying campaign %s: %w", id, err)
	}
	return &c, nil
}

func (r *PgCampaignRepository) UpdateMostRecentBroadcast(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE campaigns SET most_recent_broadcast = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("updating most recent broadcast for campaign %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetIntroductoryResponse loads the campaign's intro configuration: the
// default text plus the ordered rule list. Rule order is the stored position,
// preserved exactly as inserted.
func (r *PgCampaignRepository) GetIntroductoryResponse(ctx context.Context, campaignID uuid.UUID) (*domain.IntroductoryResponseConfig, error) {
	var cfg domain.IntroductoryResponseConfig
	err := r.db.QueryRow(ctx,
		`SELECT default_text FROM introductory_responses WHERE campaign_id = $1`,
		campaignID,
	).Scan(&cfg.DefaultText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying introductory response for campaign %s: %w", campaignID, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT filter, message_text FROM filtered_messages WHERE campaign_id = $1 ORDER BY position ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying filtered messages for campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var filterJSON []byte
		var text string
		if err := rows.Scan(&filterJSON, &text); err != nil {
			return nil, fmt.Errorf("scanning filtered message: %w", err)
		}
		filter, err := domain.ParseFilter(filterJSON)
		if err != nil {
			return nil, fmt.Errorf("parsing stored filter for campaign %s: %w", campaignID, err)
		}
		cfg.Messages = append(cfg.Messages, domain.FilteredMessage{Filter: filter, Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
