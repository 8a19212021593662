package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

// IntroService replies to a supporter's first inbound SMS with the campaign's
// configured introductory message. Campaigns without a configuration send
// nothing.
type IntroService struct {
	campaigns domain.CampaignRepository
	sender    SMSSender
	logger    *slog.Logger
}

func NewIntroService(campaigns domain.CampaignRepository, sender SMSSender, logger *slog.Logger) *IntroService {
	return &IntroService{
		campaigns: campaigns,
		sender:    sender,
		logger:    logger.With("component", "intro_service"),
	}
}

// SendIntroductoryReply selects and sends the introductory text for a
// first-contact ringer. from is the campaign number the supporter texted.
func (s *IntroService) SendIntroductoryReply(ctx context.Context, campaignID uuid.UUID, from string, ringer *domain.Ringer) error {
	cfg, err := s.campaigns.GetIntroductoryResponse(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading introductory response for campaign %s: %w", campaignID, err)
	}

	ir := IntroductoryResponseFromConfig(cfg, s.sender, s.logger)
	return ir.SendMessage(ctx, from, ringer)
}
