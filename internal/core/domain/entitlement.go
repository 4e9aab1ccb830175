package domain

import (
	"errors"
	"time"
)

// ClaimState represents the terminal outcome of one claim request.
type ClaimState string

const (
	StateBanned         ClaimState = "banned"
	StateAlreadyClaimed ClaimState = "already_claimed"
	StateQuotaExhausted ClaimState = "quota_exhausted"
	StateRewarded       ClaimState = "rewarded"
	StateEmptyHanded    ClaimState = "empty_handed"
)

var ErrStorageUnavailable = errors.New("storage unavailable")

// UserEntitlement is the per-identity daily allowance record. Rows are created
// on first contact and never deleted; counters are mutated only by the
// redemption service and the daily reset job.
type UserEntitlement struct {
	Identity     string    `json:"identity" bson:"_id"`
	DisplayName  string    `json:"display_name" bson:"display_name"`
	Handle       string    `json:"handle" bson:"handle"`
	DailyCount   int       `json:"daily_count" bson:"daily_count"`
	TotalCount   int       `json:"total_count" bson:"total_count"`
	ClaimedToday bool      `json:"claimed_today" bson:"claimed_today"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
