// Package review defines review and helpful-vote records.
package review

import "time"

// Type distinguishes the intent of a review.
type Type uint8

const (
	TypeGeneral Type = iota
	TypeWarning
	TypeScamReport
	TypePositive
)

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool { return t <= TypePositive }

func (t Type) String() string {
	switch t {
	case TypeGeneral:
		return "general"
	case TypeWarning:
		return "warning"
	case TypeScamReport:
		return "scam_report"
	case TypePositive:
		return "positive"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a review.
type Status uint8

const (
	StatusActive Status = iota
	StatusEdited
	StatusDisputed
	StatusRemoved
	StatusHidden
)

// Live reports whether the review currently contributes to its app's
// aggregate rating.
func (s Status) Live() bool {
	return s == StatusActive || s == StatusEdited || s == StatusDisputed
}

// Tag ids understood by the presentation layer. 0-4 positive, 5-9 negative,
// 10-14 scam-specific.
const MaxTagID = 14

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a staked review of a registered app. Content and proof are opaque
// content identifiers resolved by an external collaborator; the ledger never
// depends on their resolution.
type Review struct {
	ReviewID                 uint64    `json:"reviewId" db:"review_id"`
	AppID                    uint64    `json:"appId" db:"app_id"`
	Reviewer                 string    `json:"reviewer" db:"reviewer"`
	Rating                   uint8     `json:"rating" db:"rating"`
	ReviewType               Type      `json:"reviewType" db:"review_type"`
	Tags                     []uint8   `json:"tags" db:"-"`
	ReviewContentID          string    `json:"reviewContentId" db:"review_content_id"`
	ProofContentID           string    `json:"proofContentId" db:"proof_content_id"`
	EvidenceReferences       []string  `json:"evidenceReferences" db:"-"`
	Timestamp                time.Time `json:"timestamp" db:"created_at"`
	LastEdited               time.Time `json:"lastEdited" db:"last_edited"`
	HelpfulScore             int64     `json:"helpfulScore" db:"helpful_score"`
	ReviewerReputationAtTime uint8     `json:"reviewerReputationAtTime" db:"reviewer_reputation"`
	DeveloperResponse        string    `json:"developerResponse" db:"developer_response"`
	Stake                    int64     `json:"stake" db:"stake"`
	Status                   Status    `json:"status" db:"status"`
}

// Vote records one helpful/unhelpful vote per (review, voter) pair. Weight is
// the integer weight actually applied to the review's helpful score.
type Vote struct {
	ReviewID  uint64    `json:"reviewId" db:"review_id"`
	Voter     string    `json:"voter" db:"voter"`
	IsHelpful bool      `json:"isHelpful" db:"is_helpful"`
	Weight    int64     `json:"weight" db:"weight"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
