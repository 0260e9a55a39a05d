// Package memory is the in-memory implementation of the storage interfaces.
// A single RWMutex guards all collections, so every compound transition is
// strictly serialized with respect to every other mutation. It is safe for
// concurrent use and is the store of record for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/params"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

// Store holds the whole ledger state behind one lock.
type Store struct {
	mu sync.RWMutex

	nextAppID     uint64
	nextReviewID  uint64
	nextDisputeID uint64

	apps       map[uint64]miniapp.MiniApp
	appsByName map[string]uint64
	appsByURL  map[string]uint64

	reviews       map[uint64]review.Review
	reviewsByApp  map[uint64][]uint64
	reviewsByUser map[string][]uint64
	liveReview    map[string]uint64 // reviewer/appID -> live review id

	votes map[string]review.Vote // reviewID/voter

	disputes     map[uint64]dispute.Dispute
	openByReview map[uint64]uint64
	escrows      map[string]escrow.Entry
	escrowByRef  map[string]string // kind/refID -> escrow id
	ledgerParams params.Params
	paused       bool
}

var _ storage.AppStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.VoteStore = (*Store)(nil)
var _ storage.DisputeStore = (*Store)(nil)
var _ storage.EscrowStore = (*Store)(nil)
var _ storage.ParamsStore = (*Store)(nil)

// New creates an empty store with default parameters.
func New() *Store {
	return &Store{
		nextAppID:     1,
		nextReviewID:  1,
		nextDisputeID: 1,
		apps:          make(map[uint64]miniapp.MiniApp),
		appsByName:    make(map[string]uint64),
		appsByURL:     make(map[string]uint64),
		reviews:       make(map[uint64]review.Review),
		reviewsByApp:  make(map[uint64][]uint64),
		reviewsByUser: make(map[string][]uint64),
		liveReview:    make(map[string]uint64),
		votes:         make(map[string]review.Vote),
		disputes:      make(map[uint64]dispute.Dispute),
		openByReview:  make(map[uint64]uint64),
		escrows:       make(map[string]escrow.Entry),
		escrowByRef:   make(map[string]string),
		ledgerParams:  params.Default(),
	}
}

func liveKey(reviewer string, appID uint64) string {
	return fmt.Sprintf("%s/%d", reviewer, appID)
}

func voteKey(reviewID uint64, voter string) string {
	return fmt.Sprintf("%d/%s", reviewID, voter)
}

func refKey(kind escrow.Kind, refID uint64) string {
	return fmt.Sprintf("%s/%d", kind, refID)
}

// AppStore ------------------------------------------------------------------

func (s *Store) CreateApp(_ context.Context, app miniapp.MiniApp) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appsByName[app.Name]; exists {
		return miniapp.MiniApp{}, lederr.ErrDuplicateName
	}
	if _, exists := s.appsByURL[app.URL]; exists {
		return miniapp.MiniApp{}, lederr.ErrDuplicateURL
	}

	app.AppID = s.nextAppID
	s.nextAppID++
	app.VerificationStatus = miniapp.Unverified
	app.Status = miniapp.StatusActive
	app.ContractAddresses = cloneStrings(app.ContractAddresses)

	s.apps[app.AppID] = app
	s.appsByName[app.Name] = app.AppID
	s.appsByURL[app.URL] = app.AppID
	return cloneApp(app), nil
}

func (s *Store) UpdateAppMetadata(_ context.Context, appID uint64, metadataContentID string, contractAddresses []string, now time.Time) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}

	app.MetadataContentID = metadataContentID
	app.ContractAddresses = cloneStrings(contractAddresses)
	app.UpdatedAt = now

	s.apps[appID] = app
	return cloneApp(app), nil
}

func (s *Store) GetApp(_ context.Context, appID uint64) (miniapp.MiniApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}
	return cloneApp(app), nil
}

func (s *Store) ListApps(_ context.Context, offset, limit int) ([]miniapp.MiniApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.apps))
	for id := range s.apps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return paginate(ids, offset, limit, func(id uint64) miniapp.MiniApp {
		return cloneApp(s.apps[id])
	}), nil
}

func (s *Store) CountApps(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.apps)), nil
}

func (s *Store) VerifyApp(_ context.Context, appID uint64, developer string, stake int64, now time.Time) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}
	if app.Developer != developer {
		return miniapp.MiniApp{}, lederr.NotAuthorized("only the app developer can request verification")
	}
	switch {
	case app.VerificationStatus == miniapp.ConfirmedScam:
		return miniapp.MiniApp{}, lederr.InvalidState("app %d is a confirmed scam", appID)
	case app.VerificationStatus == miniapp.FlaggedSuspicious:
		// Only an administrative unflag clears the suspicion.
		return miniapp.MiniApp{}, lederr.InvalidState("app %d is flagged pending administrative review", appID)
	case app.VerificationStatus == miniapp.DeveloperVerified || app.DeveloperStake > 0:
		return miniapp.MiniApp{}, lederr.InvalidState("app %d already holds a verification stake", appID)
	}

	s.holdLocked(escrow.KindVerificationStake, developer, stake, appID, now)
	app.DeveloperStake = stake
	app.VerificationStatus = miniapp.DeveloperVerified
	app.UpdatedAt = now

	s.apps[appID] = app
	return cloneApp(app), nil
}

func (s *Store) SetVerification(_ context.Context, appID uint64, status miniapp.VerificationStatus, now time.Time) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}
	if app.VerificationStatus == miniapp.ConfirmedScam {
		return miniapp.MiniApp{}, lederr.InvalidState("app %d is a confirmed scam", appID)
	}

	app.VerificationStatus = status
	app.UpdatedAt = now

	s.apps[appID] = app
	return cloneApp(app), nil
}

func (s *Store) UnflagApp(_ context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}
	if app.VerificationStatus != miniapp.FlaggedSuspicious {
		return miniapp.MiniApp{}, lederr.InvalidState("app %d is not flagged", appID)
	}

	app.VerificationStatus = app.PrevVerification
	app.PrevVerification = miniapp.Unverified
	app.UpdatedAt = now

	s.apps[appID] = app
	return cloneApp(app), nil
}

func (s *Store) ConfirmScam(_ context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
	}
	if app.VerificationStatus == miniapp.ConfirmedScam {
		return miniapp.MiniApp{}, lederr.InvalidState("app %d is already a confirmed scam", appID)
	}

	app.VerificationStatus = miniapp.ConfirmedScam
	app.Status = miniapp.StatusSuspended
	if app.DeveloperStake > 0 {
		s.resolveEscrowLocked(escrow.KindVerificationStake, appID, escrow.StatusForfeited, "", now)
		app.DeveloperStake = 0
	}
	app.UpdatedAt = now

	s.apps[appID] = app
	return cloneApp(app), nil
}

// ReviewStore ---------------------------------------------------------------

func (s *Store) SubmitReview(_ context.Context, rev review.Review, pol storage.SubmitPolicy) (review.Review, miniapp.MiniApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[rev.AppID]
	if !ok {
		return review.Review{}, miniapp.MiniApp{}, lederr.NotFound("app %d not found", rev.AppID)
	}
	if app.Status != miniapp.StatusActive {
		return review.Review{}, miniapp.MiniApp{}, lederr.InvalidState("app %d is not active", rev.AppID)
	}
	if _, exists := s.liveReview[liveKey(rev.Reviewer, rev.AppID)]; exists {
		return review.Review{}, miniapp.MiniApp{}, lederr.ErrDuplicateReview
	}
	if s.countSinceLocked(rev.Reviewer, pol.WindowStart) >= pol.MaxPerWindow {
		return review.Review{}, miniapp.MiniApp{}, lederr.ErrRateLimited
	}

	rev.ReviewID = s.nextReviewID
	s.nextReviewID++
	rev.Status = review.StatusActive
	rev.HelpfulScore = 0
	rev.Tags = cloneTags(rev.Tags)
	rev.EvidenceReferences = cloneStrings(rev.EvidenceReferences)

	s.holdLocked(escrow.KindReviewStake, rev.Reviewer, rev.Stake, rev.ReviewID, rev.Timestamp)

	s.reviews[rev.ReviewID] = rev
	s.reviewsByApp[rev.AppID] = append(s.reviewsByApp[rev.AppID], rev.ReviewID)
	s.reviewsByUser[rev.Reviewer] = append(s.reviewsByUser[rev.Reviewer], rev.ReviewID)
	s.liveReview[liveKey(rev.Reviewer, rev.AppID)] = rev.ReviewID

	app.TotalReviews++
	app.RatingSum += uint64(rev.Rating)
	app.RecomputeAverage()
	if rev.ReviewType == review.TypeScamReport {
		app.ScamReportsCount++
		if app.ScamReportsCount >= pol.ScamThreshold &&
			app.VerificationStatus != miniapp.FlaggedSuspicious &&
			app.VerificationStatus != miniapp.ConfirmedScam {
			app.PrevVerification = app.VerificationStatus
			app.VerificationStatus = miniapp.FlaggedSuspicious
		}
	}
	app.UpdatedAt = rev.Timestamp
	s.apps[app.AppID] = app

	return cloneReview(rev), cloneApp(app), nil
}

func (s *Store) EditReview(_ context.Context, reviewID uint64, editor string, rating uint8, contentID string, window time.Duration, now time.Time) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.reviews[reviewID]
	if !ok {
		return review.Review{}, lederr.NotFound("review %d not found", reviewID)
	}
	if rev.Reviewer != editor {
		return review.Review{}, lederr.NotAuthorized("only the reviewer can edit")
	}
	if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
		return review.Review{}, lederr.InvalidState("review %d cannot be edited in its current state", reviewID)
	}
	if now.Sub(rev.Timestamp) >= window {
		return review.Review{}, lederr.ErrEditWindowExpired
	}

	app := s.apps[rev.AppID]
	app.RatingSum = app.RatingSum - uint64(rev.Rating) + uint64(rating)
	app.RecomputeAverage()
	app.UpdatedAt = now
	s.apps[app.AppID] = app

	rev.Rating = rating
	rev.ReviewContentID = contentID
	rev.Status = review.StatusEdited
	rev.LastEdited = now
	s.reviews[reviewID] = rev

	return cloneReview(rev), nil
}

func (s *Store) DeleteReview(_ context.Context, reviewID uint64, caller string, now time.Time) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.reviews[reviewID]
	if !ok {
		return review.Review{}, lederr.NotFound("review %d not found", reviewID)
	}
	if rev.Reviewer != caller {
		return review.Review{}, lederr.NotAuthorized("only the reviewer can delete")
	}
	if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
		return review.Review{}, lederr.InvalidState("review %d cannot be deleted in its current state", reviewID)
	}

	s.removeReviewLocked(&rev, now)
	// Deleted stakes are forfeited, not refunded.
	s.resolveEscrowLocked(escrow.KindReviewStake, reviewID, escrow.StatusForfeited, "", now)
	s.reviews[reviewID] = rev

	return cloneReview(rev), nil
}

// removeReviewLocked moves a live review to Removed and takes its rating out
// of the app aggregates.
func (s *Store) removeReviewLocked(rev *review.Review, now time.Time) {
	app := s.apps[rev.AppID]
	app.TotalReviews--
	app.RatingSum -= uint64(rev.Rating)
	app.RecomputeAverage()
	if rev.ReviewType == review.TypeScamReport && app.ScamReportsCount > 0 {
		app.ScamReportsCount--
	}
	app.UpdatedAt = now
	s.apps[app.AppID] = app

	delete(s.liveReview, liveKey(rev.Reviewer, rev.AppID))
	rev.Status = review.StatusRemoved
}

func (s *Store) RespondToReview(_ context.Context, reviewID uint64, developer string, responseContentID string) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.reviews[reviewID]
	if !ok {
		return review.Review{}, lederr.NotFound("review %d not found", reviewID)
	}
	app := s.apps[rev.AppID]
	if app.Developer != developer {
		return review.Review{}, lederr.NotAuthorized("only the app developer can respond")
	}
	if rev.DeveloperResponse != "" {
		return review.Review{}, lederr.ErrAlreadyResponded
	}

	rev.DeveloperResponse = responseContentID
	s.reviews[reviewID] = rev
	return cloneReview(rev), nil
}

func (s *Store) GetReview(_ context.Context, reviewID uint64) (review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev, ok := s.reviews[reviewID]
	if !ok {
		return review.Review{}, lederr.NotFound("review %d not found", reviewID)
	}
	return cloneReview(rev), nil
}

func (s *Store) ListReviewsForApp(_ context.Context, appID uint64, offset, limit int) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.reviewsByApp[appID]
	return paginate(ids, offset, limit, func(id uint64) review.Review {
		return cloneReview(s.reviews[id])
	}), nil
}

func (s *Store) CountReviews(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.reviews)), nil
}

func (s *Store) CountReviewsSince(_ context.Context, reviewer string, since time.Time) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countSinceLocked(reviewer, since), nil
}

func (s *Store) countSinceLocked(reviewer string, since time.Time) uint64 {
	var n uint64
	for _, id := range s.reviewsByUser[reviewer] {
		if !s.reviews[id].Timestamp.Before(since) {
			n++
		}
	}
	return n
}

func (s *Store) ReviewerHistory(_ context.Context, reviewer string, now time.Time) (reputation.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h reputation.History
	var first time.Time
	for _, id := range s.reviewsByUser[reviewer] {
		rev := s.reviews[id]
		if !rev.Status.Live() {
			continue
		}
		h.LiveReviews++
		if rev.HelpfulScore > 0 {
			h.NetPositive++
		}
		if first.IsZero() || rev.Timestamp.Before(first) {
			first = rev.Timestamp
		}
	}
	if !first.IsZero() && now.After(first) {
		h.MonthsSinceFirst = uint64(now.Sub(first) / (30 * 24 * time.Hour))
	}
	for _, d := range s.disputes {
		if d.Status != dispute.StatusUpheld {
			continue
		}
		if rev, ok := s.reviews[d.ReviewID]; ok && rev.Reviewer == reviewer {
			h.DisputesLost++
		}
	}
	return h, nil
}

// VoteStore -----------------------------------------------------------------

func (s *Store) AddVote(_ context.Context, vote review.Vote) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.reviews[vote.ReviewID]
	if !ok {
		return review.Review{}, lederr.NotFound("review %d not found", vote.ReviewID)
	}
	if rev.Reviewer == vote.Voter {
		return review.Review{}, lederr.ErrSelfVote
	}
	if !rev.Status.Live() {
		return review.Review{}, lederr.InvalidState("review %d is no longer live", vote.ReviewID)
	}
	key := voteKey(vote.ReviewID, vote.Voter)
	if _, exists := s.votes[key]; exists {
		return review.Review{}, lederr.ErrDuplicateVote
	}

	s.votes[key] = vote
	if vote.IsHelpful {
		rev.HelpfulScore += vote.Weight
	} else {
		rev.HelpfulScore -= vote.Weight
	}
	s.reviews[vote.ReviewID] = rev

	return cloneReview(rev), nil
}

func (s *Store) GetVote(_ context.Context, reviewID uint64, voter string) (review.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[voteKey(reviewID, voter)]
	if !ok {
		return review.Vote{}, lederr.NotFound("vote not found")
	}
	return vote, nil
}

// DisputeStore --------------------------------------------------------------

func (s *Store) OpenDispute(_ context.Context, d dispute.Dispute) (dispute.Dispute, review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.reviews[d.ReviewID]
	if !ok {
		return dispute.Dispute{}, review.Review{}, lederr.NotFound("review %d not found", d.ReviewID)
	}
	if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
		return dispute.Dispute{}, review.Review{}, lederr.InvalidState("review %d cannot be disputed in its current state", d.ReviewID)
	}
	app := s.apps[rev.AppID]
	if app.Developer != d.Disputer {
		return dispute.Dispute{}, review.Review{}, lederr.NotAuthorized("only the app developer can dispute")
	}

	d.DisputeID = s.nextDisputeID
	s.nextDisputeID++
	d.AppID = rev.AppID
	d.Status = dispute.StatusOpen
	d.EvidenceReferences = cloneStrings(d.EvidenceReferences)

	s.holdLocked(escrow.KindDisputeBond, d.Disputer, d.Bond, d.DisputeID, d.OpenedAt)

	rev.Status = review.StatusDisputed
	s.reviews[rev.ReviewID] = rev
	s.disputes[d.DisputeID] = d
	s.openByReview[d.ReviewID] = d.DisputeID

	return cloneDispute(d), cloneReview(rev), nil
}

func (s *Store) ResolveDispute(_ context.Context, disputeID uint64, upheld bool, now time.Time) (dispute.Dispute, review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.disputes[disputeID]
	if !ok {
		return dispute.Dispute{}, review.Review{}, lederr.NotFound("dispute %d not found", disputeID)
	}
	if d.Status != dispute.StatusOpen {
		return dispute.Dispute{}, review.Review{}, lederr.InvalidState("dispute %d is already resolved", disputeID)
	}
	rev := s.reviews[d.ReviewID]

	if upheld {
		d.Status = dispute.StatusUpheld
		s.removeReviewLocked(&rev, now)
		s.resolveEscrowLocked(escrow.KindReviewStake, rev.ReviewID, escrow.StatusForfeited, "", now)
		s.resolveEscrowLocked(escrow.KindDisputeBond, d.DisputeID, escrow.StatusRefunded, d.Disputer, now)
	} else {
		d.Status = dispute.StatusRejected
		rev.Status = review.StatusActive
		// Bond goes to the prevailing party, the reviewer.
		s.resolveEscrowLocked(escrow.KindDisputeBond, d.DisputeID, escrow.StatusAwarded, rev.Reviewer, now)
	}
	d.ResolvedAt = now

	s.reviews[rev.ReviewID] = rev
	s.disputes[d.DisputeID] = d
	delete(s.openByReview, d.ReviewID)

	return cloneDispute(d), cloneReview(rev), nil
}

func (s *Store) ExpireDisputes(_ context.Context, now time.Time) ([]dispute.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []dispute.Dispute
	for id, d := range s.disputes {
		if d.Status != dispute.StatusOpen || now.Before(d.Deadline) {
			continue
		}

		rev := s.reviews[d.ReviewID]
		rev.Status = review.StatusActive
		s.reviews[rev.ReviewID] = rev

		// No ruling was made, so the bond simply goes back.
		s.resolveEscrowLocked(escrow.KindDisputeBond, d.DisputeID, escrow.StatusRefunded, d.Disputer, now)

		d.Status = dispute.StatusExpired
		d.ResolvedAt = now
		s.disputes[id] = d
		delete(s.openByReview, d.ReviewID)

		expired = append(expired, cloneDispute(d))
	}
	return expired, nil
}

func (s *Store) GetDispute(_ context.Context, disputeID uint64) (dispute.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.disputes[disputeID]
	if !ok {
		return dispute.Dispute{}, lederr.NotFound("dispute %d not found", disputeID)
	}
	return cloneDispute(d), nil
}

func (s *Store) GetOpenDisputeForReview(_ context.Context, reviewID uint64) (dispute.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.openByReview[reviewID]
	if !ok {
		return dispute.Dispute{}, lederr.NotFound("no open dispute for review %d", reviewID)
	}
	return cloneDispute(s.disputes[id]), nil
}

// EscrowStore ---------------------------------------------------------------

func (s *Store) ListEscrowsForParty(_ context.Context, party string) ([]escrow.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []escrow.Entry
	for _, e := range s.escrows {
		if e.Party == party {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) TreasuryBalance(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, e := range s.escrows {
		if e.Status == escrow.StatusForfeited {
			total += e.Amount
		}
	}
	return total, nil
}

// holdLocked opens a held escrow entry for a deposit.
func (s *Store) holdLocked(kind escrow.Kind, party string, amount int64, refID uint64, now time.Time) {
	e := escrow.Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Party:     party,
		Amount:    amount,
		RefID:     refID,
		Status:    escrow.StatusHeld,
		CreatedAt: now,
	}
	s.escrows[e.ID] = e
	s.escrowByRef[refKey(kind, refID)] = e.ID
}

// resolveEscrowLocked settles the held entry for (kind, refID). Settling an
// already-settled or missing entry is a no-op so transitions stay idempotent
// with respect to escrow.
func (s *Store) resolveEscrowLocked(kind escrow.Kind, refID uint64, status escrow.Status, recipient string, now time.Time) {
	id, ok := s.escrowByRef[refKey(kind, refID)]
	if !ok {
		return
	}
	e := s.escrows[id]
	if e.Status != escrow.StatusHeld {
		return
	}
	e.Status = status
	e.Recipient = recipient
	e.ResolvedAt = now
	s.escrows[id] = e
}

// ParamsStore ---------------------------------------------------------------

func (s *Store) GetParams(_ context.Context) (params.Params, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgerParams, nil
}

func (s *Store) UpdateParams(_ context.Context, p params.Params) (params.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgerParams = p
	return p, nil
}

func (s *Store) Paused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused, nil
}

func (s *Store) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	return nil
}

// Helpers -------------------------------------------------------------------

func paginate[T any](ids []uint64, offset, limit int, fetch func(uint64) T) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return []T{}
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	result := make([]T, 0, end-offset)
	for _, id := range ids[offset:end] {
		result = append(result, fetch(id))
	}
	return result
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

func cloneTags(src []uint8) []uint8 {
	if src == nil {
		return nil
	}
	return append([]uint8(nil), src...)
}

func cloneApp(app miniapp.MiniApp) miniapp.MiniApp {
	app.ContractAddresses = cloneStrings(app.ContractAddresses)
	return app
}

func cloneReview(rev review.Review) review.Review {
	rev.Tags = cloneTags(rev.Tags)
	rev.EvidenceReferences = cloneStrings(rev.EvidenceReferences)
	return rev
}

func cloneDispute(d dispute.Dispute) dispute.Dispute {
	d.EvidenceReferences = cloneStrings(d.EvidenceReferences)
	return d
}
