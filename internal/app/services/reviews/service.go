// Package reviews implements the review ledger: staked submission, edits,
// deletion, developer responses and the app-aggregate bookkeeping they imply.
package reviews

import (
	"context"
	"strings"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/metrics"
	reputationsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// submissionWindow is the rolling period the per-identity cap applies to.
const submissionWindow = 24 * time.Hour

// LeaveInput carries the caller-supplied fields of a new review.
type LeaveInput struct {
	AppID              uint64
	Rating             uint8
	ReviewType         review.Type
	Tags               []uint8
	ReviewContentID    string
	ProofContentID     string
	EvidenceReferences []string
	Stake              int64
}

// Service manages review records.
type Service struct {
	store      storage.ReviewStore
	params     storage.ParamsStore
	reputation *reputationsvc.Service
	bus        *events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New constructs the review service.
func New(store storage.ReviewStore, params storage.ParamsStore, reputation *reputationsvc.Service, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reviews")
	}
	return &Service{
		store:      store,
		params:     params,
		reputation: reputation,
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

func (s *Service) ensureRunning(ctx context.Context) error {
	paused, err := s.params.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return lederr.ErrSystemPaused
	}
	return nil
}

// Leave submits a staked review and updates the app's aggregates. The
// reviewer's reputation is snapshotted at submission time.
func (s *Service) Leave(ctx context.Context, reviewer string, in LeaveInput) (review.Review, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return review.Review{}, err
	}
	if reviewer == "" {
		return review.Review{}, lederr.InvalidInput("reviewer identity is required")
	}
	if in.Rating < review.MinRating || in.Rating > review.MaxRating {
		return review.Review{}, lederr.ErrInvalidRating
	}
	if !in.ReviewType.Valid() {
		return review.Review{}, lederr.InvalidInput("unknown review type %d", in.ReviewType)
	}
	for _, tag := range in.Tags {
		if tag > review.MaxTagID {
			return review.Review{}, lederr.InvalidInput("unknown tag %d", tag)
		}
	}
	if in.ReviewType == review.TypeScamReport && strings.TrimSpace(in.ProofContentID) == "" {
		return review.Review{}, lederr.ErrMissingProof
	}

	p, err := s.params.GetParams(ctx)
	if err != nil {
		return review.Review{}, err
	}
	if in.Stake < p.MinReviewStake {
		return review.Review{}, lederr.ErrInsufficientStake
	}

	repScore, err := s.reputation.Score(ctx, reviewer)
	if err != nil {
		return review.Review{}, err
	}

	now := s.now()
	rev, app, err := s.store.SubmitReview(ctx, review.Review{
		AppID:                    in.AppID,
		Reviewer:                 reviewer,
		Rating:                   in.Rating,
		ReviewType:               in.ReviewType,
		Tags:                     in.Tags,
		ReviewContentID:          in.ReviewContentID,
		ProofContentID:           in.ProofContentID,
		EvidenceReferences:       in.EvidenceReferences,
		Timestamp:                now,
		ReviewerReputationAtTime: repScore,
		Stake:                    in.Stake,
	}, storage.SubmitPolicy{
		WindowStart:   now.Add(-submissionWindow),
		MaxPerWindow:  p.MaxReviewsPerDay,
		ScamThreshold: p.ScamReportThreshold,
	})
	if err != nil {
		return review.Review{}, err
	}

	metrics.ReviewSubmitted(rev.ReviewType)
	s.bus.Publish(ctx, events.TopicReviewSubmitted, rev)
	if app.VerificationStatus == miniapp.FlaggedSuspicious && app.ScamReportsCount == p.ScamReportThreshold {
		s.bus.Publish(ctx, events.TopicAppVerificationChanged, events.VerificationChange{App: app})
		s.log.Warnf("app %d auto-flagged after %d scam reports", app.AppID, app.ScamReportsCount)
	}
	s.log.Infof("review %d submitted for app %d", rev.ReviewID, rev.AppID)
	return rev, nil
}

// Edit replaces the rating and content of the caller's review inside the
// edit window.
func (s *Service) Edit(ctx context.Context, editor string, reviewID uint64, rating uint8, contentID string) (review.Review, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return review.Review{}, err
	}
	if rating < review.MinRating || rating > review.MaxRating {
		return review.Review{}, lederr.ErrInvalidRating
	}

	p, err := s.params.GetParams(ctx)
	if err != nil {
		return review.Review{}, err
	}

	rev, err := s.store.EditReview(ctx, reviewID, editor, rating, contentID, p.ReviewEditWindow, s.now())
	if err != nil {
		return review.Review{}, err
	}

	s.bus.Publish(ctx, events.TopicReviewEdited, rev)
	s.log.Infof("review %d edited", reviewID)
	return rev, nil
}

// Delete soft-removes the caller's review. The stake is forfeited.
func (s *Service) Delete(ctx context.Context, caller string, reviewID uint64) (review.Review, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return review.Review{}, err
	}

	rev, err := s.store.DeleteReview(ctx, reviewID, caller, s.now())
	if err != nil {
		return review.Review{}, err
	}

	s.bus.Publish(ctx, events.TopicReviewDeleted, rev)
	s.log.Infof("review %d deleted", reviewID)
	return rev, nil
}

// Respond records the single developer response on a review.
func (s *Service) Respond(ctx context.Context, developer string, reviewID uint64, responseContentID string) (review.Review, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return review.Review{}, err
	}
	if strings.TrimSpace(responseContentID) == "" {
		return review.Review{}, lederr.InvalidInput("response content id is required")
	}

	rev, err := s.store.RespondToReview(ctx, reviewID, developer, responseContentID)
	if err != nil {
		return review.Review{}, err
	}

	s.bus.Publish(ctx, events.TopicDeveloperResponded, rev)
	s.log.Infof("developer responded to review %d", reviewID)
	return rev, nil
}

// Get returns one review.
func (s *Service) Get(ctx context.Context, reviewID uint64) (review.Review, error) {
	return s.store.GetReview(ctx, reviewID)
}

// ListForApp returns an app's reviews ordered by id.
func (s *Service) ListForApp(ctx context.Context, appID uint64, offset, limit int) ([]review.Review, error) {
	return s.store.ListReviewsForApp(ctx, appID, offset, limit)
}

// Total returns the number of reviews ever submitted.
func (s *Service) Total(ctx context.Context) (uint64, error) {
	return s.store.CountReviews(ctx)
}
