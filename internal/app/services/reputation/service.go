// Package reputation answers reputation queries by replaying a
// submitter's review history through the pure score formula.
package reputation

import (
	"context"
	"time"

	domrep "github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
)

// Service derives scores, tiers and vote weights on demand. It holds no
// mutable state of its own, so a stored score can never drift from the
// computed one.
type Service struct {
	reviews storage.ReviewStore
	now     func() time.Time
}

// New constructs the reputation service.
func New(reviews storage.ReviewStore) *Service {
	return &Service{reviews: reviews, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Score returns the identity's current score in [0,100].
func (s *Service) Score(ctx context.Context, identity string) (uint8, error) {
	history, err := s.reviews.ReviewerHistory(ctx, identity, s.now())
	if err != nil {
		return 0, err
	}
	return domrep.Score(history), nil
}

// Tier returns the identity's current tier.
func (s *Service) Tier(ctx context.Context, identity string) (domrep.Tier, error) {
	score, err := s.Score(ctx, identity)
	if err != nil {
		return domrep.TierNewbie, err
	}
	return domrep.TierFor(score), nil
}

// WeightTenths returns the identity's vote-weight multiplier in tenths.
func (s *Service) WeightTenths(ctx context.Context, identity string) (int64, error) {
	score, err := s.Score(ctx, identity)
	if err != nil {
		return 0, err
	}
	return domrep.WeightTenths(score), nil
}
