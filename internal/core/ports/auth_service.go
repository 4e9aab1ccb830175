package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// AuthService issues credentials for machine callers (the chat transport and
// admin tooling). End users of the bot are not authenticated here; their
// identity is asserted by the transport on each claim.
type AuthService interface {
	Register(ctx context.Context, name, secret, role string) (*domain.TransportClient, error)
	IssueToken(ctx context.Context, name, secret string) (string, *domain.TransportClient, error)
}
