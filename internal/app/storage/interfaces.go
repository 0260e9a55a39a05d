// Package storage defines the persistence interfaces for the review ledger.
//
// The store is the aggregate root of the ledger state: every multi-entity
// transition (review submission with stake escrow and rating aggregates,
// dispute lifecycle with bond transfers, verification with developer stake)
// is a single store method, committed atomically. Concurrent conflicting
// mutations are totally ordered; the later one fails with the taxonomy error
// for the state it observed. Stateless validation belongs to the services.
package storage

import (
	"context"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/params"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
)

// SubmitPolicy carries the parameter values a review submission is checked
// against inside the store's atomic step.
type SubmitPolicy struct {
	// WindowStart is the beginning of the rolling rate-limit window.
	WindowStart time.Time
	// MaxPerWindow is the submission cap per reviewer inside the window.
	MaxPerWindow uint64
	// ScamThreshold is the scam-report count that auto-flags an app.
	ScamThreshold uint64
}

// AppStore persists MiniApp records and their verification transitions.
type AppStore interface {
	// CreateApp assigns the next sequential app id. Name and URL must be
	// unique case-sensitively across all apps regardless of status.
	CreateApp(ctx context.Context, app miniapp.MiniApp) (miniapp.MiniApp, error)
	// UpdateAppMetadata replaces the developer-editable fields.
	UpdateAppMetadata(ctx context.Context, appID uint64, metadataContentID string, contractAddresses []string, now time.Time) (miniapp.MiniApp, error)
	GetApp(ctx context.Context, appID uint64) (miniapp.MiniApp, error)
	ListApps(ctx context.Context, offset, limit int) ([]miniapp.MiniApp, error)
	CountApps(ctx context.Context) (uint64, error)

	// VerifyApp escrows the developer stake and moves the app to
	// DeveloperVerified in one step.
	VerifyApp(ctx context.Context, appID uint64, developer string, stake int64, now time.Time) (miniapp.MiniApp, error)
	// SetVerification applies an administrative verification transition.
	SetVerification(ctx context.Context, appID uint64, status miniapp.VerificationStatus, now time.Time) (miniapp.MiniApp, error)
	// UnflagApp reverses an automatic FlaggedSuspicious transition,
	// restoring the verification status the app held before flagging.
	UnflagApp(ctx context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error)
	// ConfirmScam marks the app a confirmed scam, suspends it and forfeits
	// any escrowed developer stake in the same step.
	ConfirmScam(ctx context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error)
}

// ReviewStore persists reviews and owns the transitions coupling them to app
// aggregates and stake escrow.
type ReviewStore interface {
	// SubmitReview atomically enforces the one-live-review-per-(reviewer,
	// app) rule and the rolling submission cap, escrows rev.Stake, assigns
	// the next sequential review id, updates the app's aggregates and scam
	// counter, and auto-flags the app at the threshold. Returns the stored
	// review and the app after the update.
	SubmitReview(ctx context.Context, rev review.Review, pol SubmitPolicy) (review.Review, miniapp.MiniApp, error)
	// EditReview replaces rating and content if editor owns the review and
	// now is still inside the edit window, rebalancing the app average.
	EditReview(ctx context.Context, reviewID uint64, editor string, rating uint8, contentID string, window time.Duration, now time.Time) (review.Review, error)
	// DeleteReview soft-removes the review, forfeits its stake and removes
	// its contribution from the app aggregates.
	DeleteReview(ctx context.Context, reviewID uint64, caller string, now time.Time) (review.Review, error)
	// RespondToReview records the single developer response.
	RespondToReview(ctx context.Context, reviewID uint64, developer string, responseContentID string) (review.Review, error)

	GetReview(ctx context.Context, reviewID uint64) (review.Review, error)
	ListReviewsForApp(ctx context.Context, appID uint64, offset, limit int) ([]review.Review, error)
	CountReviews(ctx context.Context) (uint64, error)
	// CountReviewsSince counts a reviewer's submissions inside the rolling
	// window, including ones later edited or removed.
	CountReviewsSince(ctx context.Context, reviewer string, since time.Time) (uint64, error)
	// ReviewerHistory collects the reputation inputs for one identity as of
	// now, in a single consistent snapshot.
	ReviewerHistory(ctx context.Context, reviewer string, now time.Time) (reputation.History, error)
}

// VoteStore persists helpful votes and applies their weight.
type VoteStore interface {
	// AddVote rejects self votes and duplicates, records the vote and
	// applies its signed weight to the review's helpful score atomically.
	// Returns the review after the update.
	AddVote(ctx context.Context, vote review.Vote) (review.Review, error)
	GetVote(ctx context.Context, reviewID uint64, voter string) (review.Vote, error)
}

// DisputeStore persists disputes and owns their coupling to reviews and
// bond escrow.
type DisputeStore interface {
	// OpenDispute verifies the disputer develops the reviewed app, moves
	// the review to Disputed, escrows the bond and starts the clock.
	OpenDispute(ctx context.Context, d dispute.Dispute) (dispute.Dispute, review.Review, error)
	// ResolveDispute applies a ruling: upheld removes the review, forfeits
	// the reviewer's stake and refunds the bond; rejected restores the
	// review and awards the bond to the reviewer. All in one step.
	ResolveDispute(ctx context.Context, disputeID uint64, upheld bool, now time.Time) (dispute.Dispute, review.Review, error)
	// ExpireDisputes closes every open dispute past its deadline as of now:
	// the review returns to Active and the bond is refunded to the
	// disputer, since no ruling was made.
	ExpireDisputes(ctx context.Context, now time.Time) ([]dispute.Dispute, error)
	GetDispute(ctx context.Context, disputeID uint64) (dispute.Dispute, error)
	GetOpenDisputeForReview(ctx context.Context, reviewID uint64) (dispute.Dispute, error)
}

// EscrowStore exposes the deposit ledger for audit.
type EscrowStore interface {
	ListEscrowsForParty(ctx context.Context, party string) ([]escrow.Entry, error)
	// TreasuryBalance is the sum of all forfeited deposits.
	TreasuryBalance(ctx context.Context) (int64, error)
}

// ParamsStore persists the configuration singleton and the pause switch.
type ParamsStore interface {
	GetParams(ctx context.Context) (params.Params, error)
	UpdateParams(ctx context.Context, p params.Params) (params.Params, error)
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}
