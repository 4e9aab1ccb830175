package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stub activity repository
// ---------------------------------------------------------------------------

type stubActivityRepo struct {
	records   []*domain.ActivityRecord
	listErr   error
	lastLimit int
}

func (r *stubActivityRepo) Insert(_ context.Context, record *domain.ActivityRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *stubActivityRepo) ListRecent(_ context.Context, limit int) ([]*domain.ActivityRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.lastLimit = limit
	if limit > len(r.records) {
		limit = len(r.records)
	}
	// Most recent first: records are appended in order, so walk backwards.
	out := make([]*domain.ActivityRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAdminService_Stats(t *testing.T) {
	repo := newStubEntitlementRepo()
	repo.rows["user-1"] = &domain.UserEntitlement{Identity: "user-1", TotalCount: 7}
	repo.rows["user-2"] = &domain.UserEntitlement{Identity: "user-2", TotalCount: 3}

	svc := NewAdminService(repo, &stubActivityRepo{}, zerolog.Nop())
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.UserCount != 2 {
		t.Errorf("expected 2 users, got %d", stats.UserCount)
	}
	if stats.TotalRedeemed != 10 {
		t.Errorf("expected 10 total redeemed, got %d", stats.TotalRedeemed)
	}
}

func TestAdminService_RecentActivity_MostRecentFirst(t *testing.T) {
	activity := &stubActivityRepo{}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = activity.Insert(context.Background(), &domain.ActivityRecord{
			Identity:  "user-1",
			Action:    domain.ActionClaimRewarded,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := NewAdminService(newStubEntitlementRepo(), activity, zerolog.Nop())
	items, err := svc.RecentActivity(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].Timestamp.After(items[1].Timestamp) {
		t.Error("expected most recent record first")
	}
}

func TestAdminService_RecentActivity_LimitDefaultsAndCaps(t *testing.T) {
	activity := &stubActivityRepo{}
	svc := NewAdminService(newStubEntitlementRepo(), activity, zerolog.Nop())

	if _, err := svc.RecentActivity(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activity.lastLimit != defaultActivityLimit {
		t.Errorf("expected default limit %d, got %d", defaultActivityLimit, activity.lastLimit)
	}

	if _, err := svc.RecentActivity(context.Background(), 10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activity.lastLimit != maxActivityLimit {
		t.Errorf("expected capped limit %d, got %d", maxActivityLimit, activity.lastLimit)
	}
}

func TestAdminService_RecentActivity_StorageError(t *testing.T) {
	activity := &stubActivityRepo{listErr: errors.New("mongo down")}
	svc := NewAdminService(newStubEntitlementRepo(), activity, zerolog.Nop())

	_, err := svc.RecentActivity(context.Background(), 10)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
