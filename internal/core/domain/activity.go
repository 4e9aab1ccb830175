package domain

import "time"

// Activity actions recorded by the redemption flow.
const (
	ActionClaimRewarded  = "claim_rewarded"
	ActionClaimEmpty     = "claim_empty"
	ActionClaimRepeat    = "claim_repeat"
	ActionClaimExhausted = "claim_exhausted"
	ActionClaimBanned    = "claim_banned"
)

// ActivityRecord is one append-only audit entry. Records are never mutated or
// deleted; they are read only by the admin reporting surface.
type ActivityRecord struct {
	Identity  string    `json:"identity" bson:"identity"`
	Handle    string    `json:"handle" bson:"handle"`
	Action    string    `json:"action" bson:"action"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
