package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/metrics"
	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

// MatchSellers returns the sellers sharing at least one city AND at least one
// sub-category with job.
func MatchSellers(ctx context.Context, sellers store.SellerRepository, job *models.Job) ([]models.Seller, error) {
	if job == nil || len(job.JobCity) == 0 || len(job.JobSubCategories) == 0 {
		return nil, nil
	}
	matched, err := sellers.FindMatching(ctx, job.JobCity, job.JobSubCategories)
	if err != nil {
		return nil, fmt.Errorf("match sellers: %w", err)
	}
	return matched, nil
}

// notifySellers mails job to each seller in order and stops at the first
// failure. It returns how many sellers were notified.
func notifySellers(ctx context.Context, n Notifier, logger zerolog.Logger, sellers []models.Seller, job models.Job) (int, error) {
	for i, s := range sellers {
		if err := n.SendJobNotification(ctx, s.Email, s.Username, job); err != nil {
			fe := &FanOutError{Notified: i, Total: len(sellers), Recipient: s.Email, Err: err}
			logger.Error().Err(err).
				Str("job", job.ID.Hex()).
				Int("notified", i).
				Int("total", len(sellers)).
				Str("recipient", s.Email).
				Msg("job notification fan-out aborted")
			return i, fe
		}
		metrics.SellersNotifiedTotal.Inc()
	}
	return len(sellers), nil
}
