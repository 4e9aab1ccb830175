package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// ClaimInput is the DTO passed from the transport layer to RedemptionService.
// Identity is the transport-asserted stable key; DisplayName and Handle are
// denormalized display metadata, last-write-wins.
type ClaimInput struct {
	Identity    string
	DisplayName string
	Handle      string
}

// RewardItem is one redeemed coupon in a claim summary.
type RewardItem struct {
	Code     string `json:"code"`
	Campaign string `json:"campaign"`
}

// ClaimSummary is the single human-readable outcome of a claim request.
// Remaining is the quota left after this request (informational).
type ClaimSummary struct {
	State     domain.ClaimState `json:"state"`
	Remaining int               `json:"remaining"`
	Rewards   []RewardItem      `json:"rewards,omitempty"`
	Message   string            `json:"message"`
}

// RedemptionService drives the per-identity claim state machine.
type RedemptionService interface {
	Claim(ctx context.Context, input ClaimInput) (*ClaimSummary, error)
}
