package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// AdminService implements the reporting operations consumed by the admin
// collaborator: aggregate usage and the recent-activity listing.
type AdminService struct {
	entitlements ports.EntitlementRepository
	activity     ports.ActivityRepository
	log          zerolog.Logger
}

func NewAdminService(entitlements ports.EntitlementRepository, activity ports.ActivityRepository, log zerolog.Logger) *AdminService {
	return &AdminService{entitlements: entitlements, activity: activity, log: log}
}

func (s *AdminService) Stats(ctx context.Context) (*ports.StatsResult, error) {
	users, err := s.entitlements.CountUsers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats: user count failed")
		return nil, fmt.Errorf("%w: count users: %v", domain.ErrStorageUnavailable, err)
	}

	redeemed, err := s.entitlements.TotalRedeemed(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats: redeemed sum failed")
		return nil, fmt.Errorf("%w: total redeemed: %v", domain.ErrStorageUnavailable, err)
	}

	return &ports.StatsResult{UserCount: users, TotalRedeemed: redeemed}, nil
}

func (s *AdminService) RecentActivity(ctx context.Context, limit int) ([]ports.ActivityItem, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	records, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("activity listing failed")
		return nil, fmt.Errorf("%w: list activity: %v", domain.ErrStorageUnavailable, err)
	}

	items := make([]ports.ActivityItem, 0, len(records))
	for _, r := range records {
		items = append(items, ports.ActivityItem{
			Identity:  r.Identity,
			Handle:    r.Handle,
			Action:    r.Action,
			Timestamp: r.Timestamp,
		})
	}
	return items, nil
}
