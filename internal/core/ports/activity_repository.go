package ports

import (
	"context"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// ActivityRepository defines the append-only audit log store.
type ActivityRepository interface {
	Insert(ctx context.Context, record *domain.ActivityRecord) error
	// ListRecent returns up to limit records, most recent first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ActivityRecord, error)
}
