package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// AuthRepository defines persistence for transport client accounts.
type AuthRepository interface {
	FindByName(ctx context.Context, name string) (*domain.TransportClient, error)
	Create(ctx context.Context, client *domain.TransportClient) (*domain.TransportClient, error)
}
