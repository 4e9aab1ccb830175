package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// RewardClient performs one outbound claim attempt against the external reward
// API. Each call sends a freshly generated correlation id; the client never
// retries internally — retries are the redemption service's decision. Failures
// come back as a *domain.UpstreamError, never as a panic.
type RewardClient interface {
	AttemptClaim(ctx context.Context) (*domain.Reward, error)
}
