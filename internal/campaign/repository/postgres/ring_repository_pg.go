package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

type PgRingRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgRingRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgRingRepository {
	return &PgRingRepository{db: dbPool, logger: logger}
}

func (r *PgRingRepository) Create(ctx context.Context, ring *domain.Ring) error {
	query := `
		INSERT INTO rings (id, ringer_id, ringer_phone, assigned_number_id, campaign_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		ring.ID, ring.RingerID, ring.RingerPhone, ring.AssignedNumberID,
		ring.CampaignID, string(ring.Kind), ring.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting ring: %w", err)
	}

	r.logger.DebugContext(ctx, "Ring recorded", "id", ring.ID, "campaign_id", ring.CampaignID)
	return nil
}

func (r *PgRingRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Ring, error) {
	query := `
		SELECT id, ringer_id, ringer_phone, assigned_number_id, campaign_id, kind, created_at
		FROM rings
		WHERE campaign_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("querying rings for campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var rings []domain.Ring
	for rows.Next() {
		var ring domain.Ring
		var kind string
		if err := rows.Scan(&ring.ID, &ring.RingerID, &ring.RingerPhone,
			&ring.AssignedNumberID, &ring.CampaignID, &kind, &ring.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ring: %w", err)
		}
		ring.Kind = domain.RingKind(kind)
		rings = append(rings, ring)
	}
	return rings, rows.Err()
}

func (r *PgRingRepository) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rings WHERE campaign_id = $1`, campaignID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting rings for campaign %s: %w", campaignID, err)
	}
	return count, nil
}
