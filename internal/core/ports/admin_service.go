package ports

import (
	"context"
	"time"
)

// StatsResult is the aggregate usage view exposed to the administrator.
type StatsResult struct {
	UserCount     int64 `json:"user_count"`
	TotalRedeemed int64 `json:"total_redeemed"`
}

// ActivityItem is one audit entry in the admin activity listing.
type ActivityItem struct {
	Identity  string    `json:"identity"`
	Handle    string    `json:"handle"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminService exposes the reporting operations.
type AdminService interface {
	Stats(ctx context.Context) (*StatsResult, error)
	// RecentActivity returns up to limit records, most recent first. A
	// non-positive limit falls back to the service default.
	RecentActivity(ctx context.Context, limit int) ([]ActivityItem, error)
}
