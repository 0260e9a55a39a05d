// Package dispute defines developer challenges against reviews.
package dispute

import "time"

// Status tracks a dispute through its lifetime.
type Status uint8

const (
	StatusOpen Status = iota
	StatusUpheld
	StatusRejected
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusUpheld:
		return "upheld"
	case StatusRejected:
		return "rejected"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Dispute is an open or resolved challenge by an app's developer against a
// review, backed by an escrowed bond.
type Dispute struct {
	DisputeID          uint64    `json:"disputeId" db:"dispute_id"`
	ReviewID           uint64    `json:"reviewId" db:"review_id"`
	AppID              uint64    `json:"appId" db:"app_id"`
	Disputer           string    `json:"disputer" db:"disputer"`
	EvidenceContentID  string    `json:"evidenceContentId" db:"evidence_content_id"`
	EvidenceReferences []string  `json:"evidenceReferences" db:"-"`
	Bond               int64     `json:"bond" db:"bond"`
	OpenedAt           time.Time `json:"openedAt" db:"opened_at"`
	Deadline           time.Time `json:"deadline" db:"deadline"`
	ResolvedAt         time.Time `json:"resolvedAt" db:"resolved_at"`
	Status             Status    `json:"status" db:"status"`
}
