package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// DisplayDefaults carries the transport-provided display metadata applied on
// first contact and refreshed last-write-wins on every claim.
type DisplayDefaults struct {
	DisplayName string
	Handle      string
}

// EntitlementRepository defines persistence for per-identity daily allowances.
// Every operation is atomic with respect to one identity's row.
type EntitlementRepository interface {
	// GetOrCreate returns the row for identity, inserting a zeroed one on first
	// contact. The insert must be idempotent under concurrent first contact:
	// at most one row per identity, never a read-then-write race.
	GetOrCreate(ctx context.Context, identity string, defaults DisplayDefaults) (*domain.UserEntitlement, error)
	// IncrementOnSuccess adds n to both daily_count and total_count in one
	// atomic operation. Called once per confirmed reward, not once per batch.
	IncrementOnSuccess(ctx context.Context, identity string, n int) error
	// MarkClaimed sets the one-shot claimed_today flag. Idempotent.
	MarkClaimed(ctx context.Context, identity string) error
	// ResetAllDaily zeroes every row's daily_count and re-arms claimed_today in
	// one logical operation. Idempotent; total_count is untouched.
	ResetAllDaily(ctx context.Context) error
	// CountUsers returns the number of known identities.
	CountUsers(ctx context.Context) (int64, error)
	// TotalRedeemed returns the lifetime sum of total_count across identities.
	TotalRedeemed(ctx context.Context) (int64, error)
}
