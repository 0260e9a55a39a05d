// Package miniapp defines the registered application records the ledger
// tracks reviews against.
package miniapp

import "time"

// Category classifies a registered app.
type Category uint8

const (
	CategoryDeFi Category = iota
	CategoryGaming
	CategoryNFT
	CategorySocial
	CategoryUtility
	CategoryDAO
	CategoryOther
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool { return c <= CategoryOther }

// VerificationStatus is the trust tier assigned to an app.
type VerificationStatus uint8

const (
	Unverified VerificationStatus = iota
	CommunityVerified
	DeveloperVerified
	Official
	FlaggedSuspicious
	ConfirmedScam
)

func (v VerificationStatus) String() string {
	switch v {
	case Unverified:
		return "unverified"
	case CommunityVerified:
		return "community_verified"
	case DeveloperVerified:
		return "developer_verified"
	case Official:
		return "official"
	case FlaggedSuspicious:
		return "flagged_suspicious"
	case ConfirmedScam:
		return "confirmed_scam"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of an app record. Apps are never physically
// deleted, only soft-removed.
type Status uint8

const (
	StatusActive Status = iota
	StatusSuspended
	StatusRemoved
)

// Name length bounds enforced at registration.
const (
	MinNameLength = 3
	MaxNameLength = 64
	MaxURLLength  = 256
)

// MiniApp is a registered application. AverageRating is stored scaled by 100
// for one-decimal precision; RatingSum carries the exact sum of live ratings
// so the average can be maintained incrementally without drift.
type MiniApp struct {
	AppID              uint64             `json:"appId" db:"app_id"`
	Name               string             `json:"name" db:"name"`
	URL                string             `json:"url" db:"url"`
	Category           Category           `json:"category" db:"category"`
	Developer          string             `json:"developer" db:"developer"`
	ContractAddresses  []string           `json:"contractAddresses" db:"-"`
	VerificationStatus VerificationStatus `json:"verificationStatus" db:"verification_status"`
	// PrevVerification remembers the tier held before an automatic
	// FlaggedSuspicious transition so an admin override can restore it.
	PrevVerification  VerificationStatus `json:"-" db:"prev_verification"`
	RegistrationDate  time.Time          `json:"registrationDate" db:"registration_date"`
	TotalReviews      uint64             `json:"totalReviews" db:"total_reviews"`
	RatingSum         uint64             `json:"-" db:"rating_sum"`
	AverageRating     uint32             `json:"averageRating" db:"average_rating"`
	ScamReportsCount  uint64             `json:"scamReportsCount" db:"scam_reports_count"`
	MetadataContentID string             `json:"metadataContentId" db:"metadata_content_id"`
	Status            Status             `json:"status" db:"status"`
	DeveloperStake    int64              `json:"developerStake" db:"developer_stake"`
	UpdatedAt         time.Time          `json:"updatedAt" db:"updated_at"`
}

// RecomputeAverage derives AverageRating from RatingSum and TotalReviews,
// round-half-up at the x100 scale.
func (a *MiniApp) RecomputeAverage() {
	if a.TotalReviews == 0 {
		a.AverageRating = 0
		return
	}
	a.AverageRating = uint32((a.RatingSum*100 + a.TotalReviews/2) / a.TotalReviews)
}
