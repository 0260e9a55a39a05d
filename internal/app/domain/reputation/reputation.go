// Package reputation derives submitter trust scores from review history.
// The score is a pure function of observable history and is re-derivable at
// any time; nothing here is stored as an independently mutable record.
package reputation

// Tier buckets a score into the four trust levels.
type Tier uint8

const (
	TierNewbie Tier = iota
	TierRegular
	TierTrusted
	TierExpert
)

func (t Tier) String() string {
	switch t {
	case TierNewbie:
		return "newbie"
	case TierRegular:
		return "regular"
	case TierTrusted:
		return "trusted"
	case TierExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// History is the observable input to the score formula.
type History struct {
	// LiveReviews counts the submitter's non-removed reviews.
	LiveReviews uint64
	// MonthsSinceFirst is the number of whole 30-day periods since the
	// submitter's oldest non-removed review.
	MonthsSinceFirst uint64
	// NetPositive counts live reviews with a positive helpful score.
	NetPositive uint64
	// DisputesLost counts upheld disputes against the submitter's reviews.
	DisputesLost uint64
}

// Score maps history to [0,100]. Volume contributes up to 40, longevity up
// to 20, the net-positive ratio up to 30, and each lost dispute costs 10.
func Score(h History) uint8 {
	if h.LiveReviews == 0 {
		return 0
	}

	score := int64(0)

	volume := int64(h.LiveReviews) * 4
	if volume > 40 {
		volume = 40
	}
	score += volume

	longevity := int64(h.MonthsSinceFirst) * 2
	if longevity > 20 {
		longevity = 20
	}
	score += longevity

	// round-half-up of 30 * NetPositive / LiveReviews
	score += (30*int64(h.NetPositive) + int64(h.LiveReviews)/2) / int64(h.LiveReviews)

	score -= int64(h.DisputesLost) * 10

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return uint8(score)
}

// TierFor maps a score to its tier.
func TierFor(score uint8) Tier {
	switch {
	case score >= 81:
		return TierExpert
	case score >= 51:
		return TierTrusted
	case score >= 21:
		return TierRegular
	default:
		return TierNewbie
	}
}

// WeightTenths returns the vote-weight multiplier for a score, in tenths:
// 5 (x0.5) for newbies up to 20 (x2.0) for experts.
func WeightTenths(score uint8) int64 {
	switch TierFor(score) {
	case TierExpert:
		return 20
	case TierTrusted:
		return 15
	case TierRegular:
		return 10
	default:
		return 5
	}
}

// ApplyWeight converts a weight in tenths to the integer increment applied to
// a review's helpful score, round-half-up. The rule is fixed so scores are
// reproducible.
func ApplyWeight(weightTenths int64) int64 {
	return (weightTenths + 5) / 10
}
