// Package escrow defines the deposits the ledger holds while reviews,
// verifications and disputes are in flight. An escrow entry changes state
// only together with the transition that owns it.
package escrow

import "time"

// Kind says what a deposit secures.
type Kind string

const (
	KindReviewStake       Kind = "review_stake"
	KindVerificationStake Kind = "verification_stake"
	KindDisputeBond       Kind = "dispute_bond"
)

// Status tracks where the deposited amount currently sits.
type Status string

const (
	// StatusHeld means the ledger owns the amount.
	StatusHeld Status = "held"
	// StatusRefunded means the amount went back to the depositing party.
	StatusRefunded Status = "refunded"
	// StatusForfeited means the amount went to the treasury.
	StatusForfeited Status = "forfeited"
	// StatusAwarded means the amount went to the prevailing counterparty.
	StatusAwarded Status = "awarded"
)

// Entry is a single escrowed deposit. RefID points at the review, app or
// dispute the deposit belongs to.
type Entry struct {
	ID         string    `json:"id" db:"id"`
	Kind       Kind      `json:"kind" db:"kind"`
	Party      string    `json:"party" db:"party"`
	Amount     int64     `json:"amount" db:"amount"`
	RefID      uint64    `json:"refId" db:"ref_id"`
	Status     Status    `json:"status" db:"status"`
	Recipient  string    `json:"recipient,omitempty" db:"recipient"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	ResolvedAt time.Time `json:"resolvedAt" db:"resolved_at"`
}
