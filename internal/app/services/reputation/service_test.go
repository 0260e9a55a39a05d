package reputation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	domrep "github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage/memory"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedReviews(t *testing.T, store *memory.Store, reviewer string, n int, at time.Time) []review.Review {
	t.Helper()

	out := make([]review.Review, 0, n)
	for i := 0; i < n; i++ {
		app, err := store.CreateApp(context.Background(), miniapp.MiniApp{
			Name: fmt.Sprintf("%s-app-%d", reviewer, i), URL: fmt.Sprintf("https://%s-%d.example", reviewer, i),
			Developer: "dev1", RegistrationDate: at, UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("create app: %v", err)
		}
		rev, _, err := store.SubmitReview(context.Background(), review.Review{
			AppID: app.AppID, Reviewer: reviewer, Rating: 4, Timestamp: at, Stake: 100000,
		}, storage.SubmitPolicy{WindowStart: at.Add(-24 * time.Hour), MaxPerWindow: 100, ScamThreshold: 5})
		if err != nil {
			t.Fatalf("submit review: %v", err)
		}
		out = append(out, rev)
	}
	return out
}

func TestScoreUnknownIdentity(t *testing.T) {
	svc := New(memory.New()).WithClock(func() time.Time { return fixedTime })

	score, err := svc.Score(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 0 {
		t.Fatalf("score without history: %d", score)
	}
}

func TestScoreGrowsWithHistory(t *testing.T) {
	store := memory.New()
	svc := New(store).WithClock(func() time.Time { return fixedTime })

	seedReviews(t, store, "alice", 3, fixedTime.Add(-90*24*time.Hour))

	// 3 live reviews (12) + 3 months (6) + no net-positive reviews (0).
	score, err := svc.Score(context.Background(), "alice")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 18 {
		t.Fatalf("score: %d", score)
	}

	tier, err := svc.Tier(context.Background(), "alice")
	if err != nil || tier != domrep.TierNewbie {
		t.Fatalf("tier: %v %v", tier, err)
	}
}

func TestWeightTenthsTracksTier(t *testing.T) {
	store := memory.New()
	svc := New(store).WithClock(func() time.Time { return fixedTime })

	revs := seedReviews(t, store, "alice", 10, fixedTime.Add(-30*24*time.Hour))
	for _, rev := range revs {
		if _, err := store.AddVote(context.Background(), review.Vote{
			ReviewID: rev.ReviewID, Voter: "bob", IsHelpful: true, Weight: 1, CreatedAt: fixedTime,
		}); err != nil {
			t.Fatalf("seed vote: %v", err)
		}
	}

	// 40 volume + 2 longevity + 30 ratio = 72, the trusted tier.
	tenths, err := svc.WeightTenths(context.Background(), "alice")
	if err != nil {
		t.Fatalf("weight: %v", err)
	}
	if tenths != 15 {
		t.Fatalf("weight tenths: %d", tenths)
	}
}

func TestScoreIgnoresRemovedReviews(t *testing.T) {
	store := memory.New()
	svc := New(store).WithClock(func() time.Time { return fixedTime })

	revs := seedReviews(t, store, "alice", 2, fixedTime.Add(-time.Hour))
	if _, err := store.DeleteReview(context.Background(), revs[0].ReviewID, "alice", fixedTime); err != nil {
		t.Fatalf("delete: %v", err)
	}

	score, err := svc.Score(context.Background(), "alice")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 4 {
		t.Fatalf("removed review still counted: %d", score)
	}
}
