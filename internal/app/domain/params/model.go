// Package params holds the admin-owned tunable parameters of the ledger.
package params

import (
	"fmt"
	"time"
)

// Params is the ledger configuration singleton. No field may be zero: a zero
// would silently disable the safety check it backs.
type Params struct {
	MinReviewStake      int64         `json:"minReviewStake" yaml:"min_review_stake" db:"min_review_stake"`
	ReviewEditWindow    time.Duration `json:"reviewEditWindow" yaml:"review_edit_window" db:"review_edit_window"`
	DisputePeriod       time.Duration `json:"disputePeriod" yaml:"dispute_period" db:"dispute_period"`
	ScamReportThreshold uint64        `json:"scamReportThreshold" yaml:"scam_report_threshold" db:"scam_report_threshold"`
	VerificationStake   int64         `json:"verificationStake" yaml:"verification_stake" db:"verification_stake"`
	DisputeBond         int64         `json:"disputeBond" yaml:"dispute_bond" db:"dispute_bond"`
	MaxReviewsPerDay    uint64        `json:"maxReviewsPerDay" yaml:"max_reviews_per_day" db:"max_reviews_per_day"`
}

// Default returns the parameters the ledger ships with.
func Default() Params {
	return Params{
		MinReviewStake:      100_000,
		ReviewEditWindow:    24 * time.Hour,
		DisputePeriod:       7 * 24 * time.Hour,
		ScamReportThreshold: 5,
		VerificationStake:   50_000_000,
		DisputeBond:         10_000_000,
		MaxReviewsPerDay:    5,
	}
}

// Validate rejects any configuration that would disable a safety check.
func (p Params) Validate() error {
	if p.MinReviewStake <= 0 {
		return fmt.Errorf("min review stake must be positive")
	}
	if p.ReviewEditWindow <= 0 {
		return fmt.Errorf("review edit window must be positive")
	}
	if p.DisputePeriod <= 0 {
		return fmt.Errorf("dispute period must be positive")
	}
	if p.ScamReportThreshold == 0 {
		return fmt.Errorf("scam report threshold must be positive")
	}
	if p.VerificationStake <= 0 {
		return fmt.Errorf("verification stake must be positive")
	}
	if p.DisputeBond <= 0 {
		return fmt.Errorf("dispute bond must be positive")
	}
	if p.MaxReviewsPerDay == 0 {
		return fmt.Errorf("max reviews per day must be positive")
	}
	return nil
}
