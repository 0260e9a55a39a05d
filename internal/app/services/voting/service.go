// Package voting implements reputation-weighted helpful votes on reviews.
package voting

import (
	"context"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/metrics"
	reputationsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// VoteResult is the payload published with each accepted vote.
type VoteResult struct {
	ReviewID     uint64 `json:"reviewId"`
	Voter        string `json:"voter"`
	IsHelpful    bool   `json:"isHelpful"`
	Weight       int64  `json:"weight"`
	HelpfulScore int64  `json:"helpfulScore"`
}

// Service records helpful votes.
type Service struct {
	votes      storage.VoteStore
	params     storage.ParamsStore
	reputation *reputationsvc.Service
	bus        *events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New constructs the voting service.
func New(votes storage.VoteStore, params storage.ParamsStore, rep *reputationsvc.Service, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("voting")
	}
	return &Service{
		votes:      votes,
		params:     params,
		reputation: rep,
		bus:        bus,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// VoteHelpful records one vote per (review, voter) pair, weighted by the
// voter's reputation at vote time. Rejected attempts leave the score
// untouched.
func (s *Service) VoteHelpful(ctx context.Context, voter string, reviewID uint64, isHelpful bool) (review.Review, error) {
	paused, err := s.params.Paused(ctx)
	if err != nil {
		return review.Review{}, err
	}
	if paused {
		return review.Review{}, lederr.ErrSystemPaused
	}
	if voter == "" {
		return review.Review{}, lederr.InvalidInput("voter identity is required")
	}

	weightTenths, err := s.reputation.WeightTenths(ctx, voter)
	if err != nil {
		return review.Review{}, err
	}
	weight := reputation.ApplyWeight(weightTenths)

	rev, err := s.votes.AddVote(ctx, review.Vote{
		ReviewID:  reviewID,
		Voter:     voter,
		IsHelpful: isHelpful,
		Weight:    weight,
		CreatedAt: s.now(),
	})
	if err != nil {
		return review.Review{}, err
	}

	metrics.VoteCast(isHelpful)
	s.bus.Publish(ctx, events.TopicHelpfulVoted, VoteResult{
		ReviewID:     reviewID,
		Voter:        voter,
		IsHelpful:    isHelpful,
		Weight:       weight,
		HelpfulScore: rev.HelpfulScore,
	})
	s.log.Debugf("vote recorded on review %d (score %d)", reviewID, rev.HelpfulScore)
	return rev, nil
}
