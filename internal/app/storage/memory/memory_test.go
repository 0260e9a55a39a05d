package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func defaultPolicy() storage.SubmitPolicy {
	return storage.SubmitPolicy{
		WindowStart:   testTime.Add(-24 * time.Hour),
		MaxPerWindow:  5,
		ScamThreshold: 5,
	}
}

func createApp(t *testing.T, s *Store, name, developer string) miniapp.MiniApp {
	t.Helper()
	app, err := s.CreateApp(context.Background(), miniapp.MiniApp{
		Name:             name,
		URL:              "https://" + name + ".example",
		Category:         miniapp.CategoryUtility,
		Developer:        developer,
		RegistrationDate: testTime,
		UpdatedAt:        testTime,
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return app
}

func submitReview(t *testing.T, s *Store, appID uint64, reviewer string, rating uint8) review.Review {
	t.Helper()
	rev, _, err := s.SubmitReview(context.Background(), review.Review{
		AppID:     appID,
		Reviewer:  reviewer,
		Rating:    rating,
		Timestamp: testTime,
		Stake:     100000,
	}, defaultPolicy())
	if err != nil {
		t.Fatalf("submit review: %v", err)
	}
	return rev
}

func TestCreateAppSequentialIDs(t *testing.T) {
	s := New()

	first := createApp(t, s, "alpha", "dev1")
	second := createApp(t, s, "beta", "dev2")

	if first.AppID != 1 || second.AppID != 2 {
		t.Fatalf("ids not sequential: %d, %d", first.AppID, second.AppID)
	}
	if first.VerificationStatus != miniapp.Unverified {
		t.Fatalf("new app should be unverified: %v", first.VerificationStatus)
	}
}

func TestCreateAppDuplicateNameAndURL(t *testing.T) {
	s := New()
	createApp(t, s, "alpha", "dev1")

	_, err := s.CreateApp(context.Background(), miniapp.MiniApp{
		Name: "alpha", URL: "https://other.example",
	})
	if !errors.Is(err, lederr.ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}

	_, err = s.CreateApp(context.Background(), miniapp.MiniApp{
		Name: "gamma", URL: "https://alpha.example",
	})
	if !errors.Is(err, lederr.ErrDuplicateURL) {
		t.Fatalf("expected duplicate url, got %v", err)
	}
}

func TestSubmitReviewUpdatesAggregates(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	submitReview(t, s, app.AppID, "alice", 5)
	submitReview(t, s, app.AppID, "bob", 4)

	got, err := s.GetApp(context.Background(), app.AppID)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	if got.TotalReviews != 2 {
		t.Fatalf("total reviews: %d", got.TotalReviews)
	}
	// (5+4)/2 = 4.5, scaled by 100.
	if got.AverageRating != 450 {
		t.Fatalf("average rating: %d", got.AverageRating)
	}
}

func TestSubmitReviewOneLivePerReviewer(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	submitReview(t, s, app.AppID, "alice", 5)

	_, _, err := s.SubmitReview(context.Background(), review.Review{
		AppID: app.AppID, Reviewer: "alice", Rating: 3, Timestamp: testTime, Stake: 100000,
	}, defaultPolicy())
	if !errors.Is(err, lederr.ErrDuplicateReview) {
		t.Fatalf("expected duplicate review, got %v", err)
	}
}

func TestSubmitReviewRateLimit(t *testing.T) {
	s := New()
	for i := 0; i < 6; i++ {
		createApp(t, s, string(rune('a'+i))+"pp", "dev1")
	}

	for i := 0; i < 5; i++ {
		submitReview(t, s, uint64(i+1), "alice", 4)
	}

	_, _, err := s.SubmitReview(context.Background(), review.Review{
		AppID: 6, Reviewer: "alice", Rating: 4, Timestamp: testTime, Stake: 100000,
	}, defaultPolicy())
	if !errors.Is(err, lederr.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	// The same submission succeeds once the window has rolled past the
	// earlier five.
	pol := defaultPolicy()
	pol.WindowStart = testTime.Add(time.Minute)
	_, _, err = s.SubmitReview(context.Background(), review.Review{
		AppID: 6, Reviewer: "alice", Rating: 4, Timestamp: testTime.Add(25 * time.Hour), Stake: 100000,
	}, pol)
	if err != nil {
		t.Fatalf("submission after window should succeed: %v", err)
	}
}

func TestScamReportsAutoFlag(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	reviewers := []string{"u1", "u2", "u3", "u4", "u5"}
	var updated miniapp.MiniApp
	for i, reviewer := range reviewers {
		var err error
		_, updated, err = s.SubmitReview(context.Background(), review.Review{
			AppID:          app.AppID,
			Reviewer:       reviewer,
			Rating:         1,
			ReviewType:     review.TypeScamReport,
			ProofContentID: "proof",
			Timestamp:      testTime,
			Stake:          100000,
		}, defaultPolicy())
		if err != nil {
			t.Fatalf("scam report %d: %v", i+1, err)
		}
	}

	if updated.ScamReportsCount != 5 {
		t.Fatalf("scam count: %d", updated.ScamReportsCount)
	}
	if updated.VerificationStatus != miniapp.FlaggedSuspicious {
		t.Fatalf("app not flagged: %v", updated.VerificationStatus)
	}
	if updated.PrevVerification != miniapp.Unverified {
		t.Fatalf("previous status not remembered: %v", updated.PrevVerification)
	}
}

func TestUnflagRestoresPreviousStatus(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); err != nil {
		t.Fatalf("verify: %v", err)
	}

	for i, reviewer := range []string{"u1", "u2", "u3", "u4", "u5"} {
		_, _, err := s.SubmitReview(context.Background(), review.Review{
			AppID: app.AppID, Reviewer: reviewer, Rating: 1,
			ReviewType: review.TypeScamReport, ProofContentID: "proof",
			Timestamp: testTime, Stake: 100000,
		}, defaultPolicy())
		if err != nil {
			t.Fatalf("scam report %d: %v", i+1, err)
		}
	}

	flagged, _ := s.GetApp(context.Background(), app.AppID)
	if flagged.VerificationStatus != miniapp.FlaggedSuspicious {
		t.Fatalf("app not flagged: %v", flagged.VerificationStatus)
	}

	restored, err := s.UnflagApp(context.Background(), app.AppID, testTime)
	if err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if restored.VerificationStatus != miniapp.DeveloperVerified {
		t.Fatalf("expected developer verified restored, got %v", restored.VerificationStatus)
	}
}

func TestVerifyAppRejectedWhileFlagged(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	for i, reviewer := range []string{"u1", "u2", "u3", "u4", "u5"} {
		_, _, err := s.SubmitReview(context.Background(), review.Review{
			AppID: app.AppID, Reviewer: reviewer, Rating: 1,
			ReviewType: review.TypeScamReport, ProofContentID: "proof",
			Timestamp: testTime, Stake: 100000,
		}, defaultPolicy())
		if err != nil {
			t.Fatalf("scam report %d: %v", i+1, err)
		}
	}

	// Only an administrative unflag clears the flag; staking must not.
	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	got, _ := s.GetApp(context.Background(), app.AppID)
	if got.VerificationStatus != miniapp.FlaggedSuspicious {
		t.Fatalf("flag cleared: %v", got.VerificationStatus)
	}

	restored, err := s.UnflagApp(context.Background(), app.AppID, testTime)
	if err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if restored.VerificationStatus != miniapp.Unverified {
		t.Fatalf("expected unverified restored, got %v", restored.VerificationStatus)
	}
}

func TestVerifyAppRejectsRepeatStake(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	held, _ := s.ListEscrowsForParty(context.Background(), "dev1")
	if len(held) != 1 || held[0].Status != escrow.StatusHeld {
		t.Fatalf("expected a single held stake: %+v", held)
	}

	if _, err := s.ConfirmScam(context.Background(), app.AppID, testTime.Add(time.Hour)); err != nil {
		t.Fatalf("confirm scam: %v", err)
	}

	held, _ = s.ListEscrowsForParty(context.Background(), "dev1")
	if len(held) != 1 || held[0].Status != escrow.StatusForfeited {
		t.Fatalf("stake not settled with the confirmation: %+v", held)
	}
}

func TestEditReviewWindow(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 5)

	_, err := s.EditReview(context.Background(), rev.ReviewID, "alice", 3, "cid2", 24*time.Hour, testTime.Add(25*time.Hour))
	if !errors.Is(err, lederr.ErrEditWindowExpired) {
		t.Fatalf("expected edit window expired, got %v", err)
	}

	edited, err := s.EditReview(context.Background(), rev.ReviewID, "alice", 3, "cid2", 24*time.Hour, testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Status != review.StatusEdited || edited.Rating != 3 {
		t.Fatalf("edit not applied: %+v", edited)
	}

	got, _ := s.GetApp(context.Background(), app.AppID)
	if got.AverageRating != 300 {
		t.Fatalf("average not rebalanced: %d", got.AverageRating)
	}
}

func TestEditReviewOnlyOwner(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 5)

	_, err := s.EditReview(context.Background(), rev.ReviewID, "mallory", 1, "cid", 24*time.Hour, testTime)
	if !errors.Is(err, lederr.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
}

func TestDeleteReviewForfeitsStake(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 5)

	removed, err := s.DeleteReview(context.Background(), rev.ReviewID, "alice", testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.Status != review.StatusRemoved {
		t.Fatalf("status: %v", removed.Status)
	}

	got, _ := s.GetApp(context.Background(), app.AppID)
	if got.TotalReviews != 0 || got.AverageRating != 0 {
		t.Fatalf("aggregates not rebalanced: %+v", got)
	}

	balance, _ := s.TreasuryBalance(context.Background())
	if balance != 100000 {
		t.Fatalf("stake not forfeited to treasury: %d", balance)
	}

	// A fresh review for the same app is allowed after removal.
	if _, _, err := s.SubmitReview(context.Background(), review.Review{
		AppID: app.AppID, Reviewer: "alice", Rating: 4,
		Timestamp: testTime.Add(2 * time.Hour), Stake: 100000,
	}, defaultPolicy()); err != nil {
		t.Fatalf("resubmit after delete: %v", err)
	}
}

func TestRespondToReviewOnce(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 4)

	if _, err := s.RespondToReview(context.Background(), rev.ReviewID, "mallory", "resp"); !errors.Is(err, lederr.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if _, err := s.RespondToReview(context.Background(), rev.ReviewID, "dev1", "resp"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := s.RespondToReview(context.Background(), rev.ReviewID, "dev1", "resp2"); !errors.Is(err, lederr.ErrAlreadyResponded) {
		t.Fatalf("expected already responded, got %v", err)
	}
}

func TestAddVoteRules(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 4)

	if _, err := s.AddVote(context.Background(), review.Vote{
		ReviewID: rev.ReviewID, Voter: "alice", IsHelpful: true, Weight: 1, CreatedAt: testTime,
	}); !errors.Is(err, lederr.ErrSelfVote) {
		t.Fatalf("expected self vote, got %v", err)
	}

	updated, err := s.AddVote(context.Background(), review.Vote{
		ReviewID: rev.ReviewID, Voter: "bob", IsHelpful: true, Weight: 2, CreatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if updated.HelpfulScore != 2 {
		t.Fatalf("helpful score: %d", updated.HelpfulScore)
	}

	if _, err := s.AddVote(context.Background(), review.Vote{
		ReviewID: rev.ReviewID, Voter: "bob", IsHelpful: false, Weight: 2, CreatedAt: testTime,
	}); !errors.Is(err, lederr.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}

	// The rejected attempt left the score untouched.
	got, _ := s.GetReview(context.Background(), rev.ReviewID)
	if got.HelpfulScore != 2 {
		t.Fatalf("score changed by rejected vote: %d", got.HelpfulScore)
	}

	downvoted, err := s.AddVote(context.Background(), review.Vote{
		ReviewID: rev.ReviewID, Voter: "carol", IsHelpful: false, Weight: 1, CreatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("downvote: %v", err)
	}
	if downvoted.HelpfulScore != 1 {
		t.Fatalf("downvote not applied: %d", downvoted.HelpfulScore)
	}
}

func openDispute(t *testing.T, s *Store, reviewID uint64, disputer string) dispute.Dispute {
	t.Helper()
	d, _, err := s.OpenDispute(context.Background(), dispute.Dispute{
		ReviewID:          reviewID,
		Disputer:          disputer,
		EvidenceContentID: "evidence",
		Bond:              10000000,
		OpenedAt:          testTime,
		Deadline:          testTime.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	return d
}

func TestOpenDisputeMarksReview(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 1)

	if _, _, err := s.OpenDispute(context.Background(), dispute.Dispute{
		ReviewID: rev.ReviewID, Disputer: "mallory", Bond: 10000000, OpenedAt: testTime,
	}); !errors.Is(err, lederr.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	d := openDispute(t, s, rev.ReviewID, "dev1")
	if d.DisputeID != 1 || d.Status != dispute.StatusOpen {
		t.Fatalf("unexpected dispute: %+v", d)
	}

	got, _ := s.GetReview(context.Background(), rev.ReviewID)
	if got.Status != review.StatusDisputed {
		t.Fatalf("review not disputed: %v", got.Status)
	}

	// A disputed review cannot be disputed again or edited.
	if _, _, err := s.OpenDispute(context.Background(), dispute.Dispute{
		ReviewID: rev.ReviewID, Disputer: "dev1", Bond: 10000000, OpenedAt: testTime,
	}); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := s.EditReview(context.Background(), rev.ReviewID, "alice", 2, "cid", 24*time.Hour, testTime); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state for edit, got %v", err)
	}
}

func TestResolveDisputeUpheld(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 1)
	d := openDispute(t, s, rev.ReviewID, "dev1")

	resolved, gotRev, err := s.ResolveDispute(context.Background(), d.DisputeID, true, testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != dispute.StatusUpheld {
		t.Fatalf("dispute status: %v", resolved.Status)
	}
	if gotRev.Status != review.StatusRemoved {
		t.Fatalf("review should be removed: %v", gotRev.Status)
	}

	gotApp, _ := s.GetApp(context.Background(), app.AppID)
	if gotApp.TotalReviews != 0 {
		t.Fatalf("aggregates not rebalanced: %+v", gotApp)
	}

	// Reviewer stake forfeited, developer bond refunded.
	balance, _ := s.TreasuryBalance(context.Background())
	if balance != 100000 {
		t.Fatalf("treasury: %d", balance)
	}
	devEscrows, _ := s.ListEscrowsForParty(context.Background(), "dev1")
	if len(devEscrows) != 1 || devEscrows[0].Status != escrow.StatusRefunded {
		t.Fatalf("bond not refunded: %+v", devEscrows)
	}
}

func TestResolveDisputeRejected(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 1)
	d := openDispute(t, s, rev.ReviewID, "dev1")

	resolved, gotRev, err := s.ResolveDispute(context.Background(), d.DisputeID, false, testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != dispute.StatusRejected {
		t.Fatalf("dispute status: %v", resolved.Status)
	}
	if gotRev.Status != review.StatusActive {
		t.Fatalf("review should be restored: %v", gotRev.Status)
	}

	gotApp, _ := s.GetApp(context.Background(), app.AppID)
	if gotApp.TotalReviews != 1 {
		t.Fatalf("aggregates should be untouched: %+v", gotApp)
	}

	devEscrows, _ := s.ListEscrowsForParty(context.Background(), "dev1")
	if len(devEscrows) != 1 || devEscrows[0].Status != escrow.StatusAwarded || devEscrows[0].Recipient != "alice" {
		t.Fatalf("bond not awarded to reviewer: %+v", devEscrows)
	}

	if _, _, err := s.ResolveDispute(context.Background(), d.DisputeID, true, testTime); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state on second resolve, got %v", err)
	}
}

func TestExpireDisputes(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")
	rev := submitReview(t, s, app.AppID, "alice", 1)
	d := openDispute(t, s, rev.ReviewID, "dev1")

	// Before the deadline nothing expires.
	expired, err := s.ExpireDisputes(context.Background(), testTime.Add(time.Hour))
	if err != nil || len(expired) != 0 {
		t.Fatalf("premature expiry: %v %v", expired, err)
	}

	expired, err = s.ExpireDisputes(context.Background(), d.Deadline.Add(time.Minute))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if len(expired) != 1 || expired[0].Status != dispute.StatusExpired {
		t.Fatalf("unexpected expiry result: %+v", expired)
	}

	gotRev, _ := s.GetReview(context.Background(), rev.ReviewID)
	if gotRev.Status != review.StatusActive {
		t.Fatalf("review should be active again: %v", gotRev.Status)
	}
	devEscrows, _ := s.ListEscrowsForParty(context.Background(), "dev1")
	if len(devEscrows) != 1 || devEscrows[0].Status != escrow.StatusRefunded {
		t.Fatalf("bond not refunded on expiry: %+v", devEscrows)
	}
}

func TestConfirmScamForfeitsDeveloperStake(t *testing.T) {
	s := New()
	app := createApp(t, s, "alpha", "dev1")

	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); err != nil {
		t.Fatalf("verify: %v", err)
	}

	confirmed, err := s.ConfirmScam(context.Background(), app.AppID, testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("confirm scam: %v", err)
	}
	if confirmed.VerificationStatus != miniapp.ConfirmedScam || confirmed.Status != miniapp.StatusSuspended {
		t.Fatalf("unexpected app state: %+v", confirmed)
	}
	if confirmed.DeveloperStake != 0 {
		t.Fatalf("stake not cleared: %d", confirmed.DeveloperStake)
	}

	balance, _ := s.TreasuryBalance(context.Background())
	if balance != 50000000 {
		t.Fatalf("stake not forfeited: %d", balance)
	}

	// Confirmed scams cannot submit reviews or be re-verified.
	if _, _, err := s.SubmitReview(context.Background(), review.Review{
		AppID: app.AppID, Reviewer: "alice", Rating: 1, Timestamp: testTime, Stake: 100000,
	}, defaultPolicy()); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := s.VerifyApp(context.Background(), app.AppID, "dev1", 50000000, testTime); !errors.Is(err, lederr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestReviewerHistory(t *testing.T) {
	s := New()
	app1 := createApp(t, s, "alpha", "dev1")
	app2 := createApp(t, s, "beta", "dev2")

	rev1 := submitReview(t, s, app1.AppID, "alice", 5)
	submitReview(t, s, app2.AppID, "alice", 4)

	if _, err := s.AddVote(context.Background(), review.Vote{
		ReviewID: rev1.ReviewID, Voter: "bob", IsHelpful: true, Weight: 1, CreatedAt: testTime,
	}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	h, err := s.ReviewerHistory(context.Background(), "alice", testTime.Add(65*24*time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.LiveReviews != 2 {
		t.Fatalf("live reviews: %d", h.LiveReviews)
	}
	if h.NetPositive != 1 {
		t.Fatalf("net positive: %d", h.NetPositive)
	}
	if h.MonthsSinceFirst != 2 {
		t.Fatalf("months: %d", h.MonthsSinceFirst)
	}
	if h.DisputesLost != 0 {
		t.Fatalf("disputes lost: %d", h.DisputesLost)
	}

	d := openDispute(t, s, rev1.ReviewID, "dev1")
	if _, _, err := s.ResolveDispute(context.Background(), d.DisputeID, true, testTime.Add(time.Hour)); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	h, _ = s.ReviewerHistory(context.Background(), "alice", testTime.Add(65*24*time.Hour))
	if h.LiveReviews != 1 || h.DisputesLost != 1 {
		t.Fatalf("history after upheld dispute: %+v", h)
	}
}

func TestPauseSwitch(t *testing.T) {
	s := New()

	paused, err := s.Paused(context.Background())
	if err != nil || paused {
		t.Fatalf("fresh store should not be paused: %v %v", paused, err)
	}
	if err := s.SetPaused(context.Background(), true); err != nil {
		t.Fatalf("set paused: %v", err)
	}
	paused, _ = s.Paused(context.Background())
	if !paused {
		t.Fatal("pause not recorded")
	}
}
