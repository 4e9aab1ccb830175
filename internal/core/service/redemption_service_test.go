package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub entitlement store
// ---------------------------------------------------------------------------

type stubEntitlementRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.UserEntitlement

	getErr  error
	incErr  error
	markErr error

	getCalls  int
	incCalls  int
	markCalls int
}

func newStubEntitlementRepo() *stubEntitlementRepo {
	return &stubEntitlementRepo{rows: make(map[string]*domain.UserEntitlement)}
}

func (r *stubEntitlementRepo) GetOrCreate(_ context.Context, identity string, d ports.DisplayDefaults) (*domain.UserEntitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[identity]
	if !ok {
		row = &domain.UserEntitlement{Identity: identity, CreatedAt: time.Now().UTC()}
		r.rows[identity] = row
	}
	row.DisplayName = d.DisplayName
	row.Handle = d.Handle
	clone := *row
	return &clone, nil
}

func (r *stubEntitlementRepo) IncrementOnSuccess(_ context.Context, identity string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incCalls++
	if r.incErr != nil {
		return r.incErr
	}
	row := r.rows[identity]
	row.DailyCount += n
	row.TotalCount += n
	return nil
}

func (r *stubEntitlementRepo) MarkClaimed(_ context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	if r.markErr != nil {
		return r.markErr
	}
	r.rows[identity].ClaimedToday = true
	return nil
}

func (r *stubEntitlementRepo) ResetAllDaily(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		row.DailyCount = 0
		row.ClaimedToday = false
	}
	return nil
}

func (r *stubEntitlementRepo) CountUsers(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *stubEntitlementRepo) TotalRedeemed(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, row := range r.rows {
		total += int64(row.TotalCount)
	}
	return total, nil
}

func (r *stubEntitlementRepo) row(identity string) domain.UserEntitlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.rows[identity]
}

// ---------------------------------------------------------------------------
// Scriptable reward client
// ---------------------------------------------------------------------------

type stubRewardClient struct {
	mu    sync.Mutex
	calls int
	// attempt returns the result for the nth call (1-based).
	attempt func(call int) (*domain.Reward, error)
}

func (c *stubRewardClient) AttemptClaim(_ context.Context) (*domain.Reward, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	return c.attempt(n)
}

func (c *stubRewardClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func alwaysSucceed() *stubRewardClient {
	return &stubRewardClient{attempt: func(int) (*domain.Reward, error) {
		return &domain.Reward{Code: "CODE-1", Campaign: "spring"}, nil
	}}
}

// ---------------------------------------------------------------------------
// Recorder stub
// ---------------------------------------------------------------------------

type stubRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (r *stubRecorder) Record(_, _, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *stubRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.actions) == 0 {
		return ""
	}
	return r.actions[len(r.actions)-1]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testPolicy() domain.QuotaPolicy {
	return domain.NewQuotaPolicy(5, 20, []string{"vip-1"}, []string{"banned-1"})
}

func newRedemptionSvc(repo *stubEntitlementRepo, client *stubRewardClient) (*RedemptionService, *stubRecorder) {
	rec := &stubRecorder{}
	return NewRedemptionService(repo, client, rec, testPolicy(), zerolog.Nop()), rec
}

func claimInput(identity string) ports.ClaimInput {
	return ports.ClaimInput{Identity: identity, DisplayName: "Test User", Handle: "tester"}
}

// ---------------------------------------------------------------------------
// End-to-end state machine
// ---------------------------------------------------------------------------

func TestClaim_FreshIdentity_FullQuota(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, rec := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.State != domain.StateRewarded {
		t.Fatalf("expected state %q, got %q", domain.StateRewarded, summary.State)
	}
	if len(summary.Rewards) != 5 {
		t.Fatalf("expected 5 rewards, got %d", len(summary.Rewards))
	}
	row := repo.row("user-1")
	if row.DailyCount != 5 || row.TotalCount != 5 {
		t.Errorf("expected counters 5/5, got %d/%d", row.DailyCount, row.TotalCount)
	}
	if !row.ClaimedToday {
		t.Error("expected claimed_today to be set")
	}
	if client.callCount() != 5 {
		t.Errorf("expected exactly 5 reward attempts, got %d", client.callCount())
	}
	if rec.last() != domain.ActionClaimRewarded {
		t.Errorf("expected %q recorded, got %q", domain.ActionClaimRewarded, rec.last())
	}

	// Second request immediately after: one-shot flag blocks regardless of quota.
	second, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error on repeat claim: %v", err)
	}
	if second.State != domain.StateAlreadyClaimed {
		t.Fatalf("expected %q, got %q", domain.StateAlreadyClaimed, second.State)
	}
	if client.callCount() != 5 {
		t.Errorf("repeat claim must not reach the reward client, calls=%d", client.callCount())
	}
	after := repo.row("user-1")
	if after.DailyCount != 5 || after.TotalCount != 5 {
		t.Errorf("repeat claim mutated counters: %d/%d", after.DailyCount, after.TotalCount)
	}
}

func TestClaim_PriorityIdentity_HigherCeiling(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("vip-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Rewards) != 20 {
		t.Fatalf("expected priority ceiling of 20 rewards, got %d", len(summary.Rewards))
	}
	if repo.row("vip-1").DailyCount != 20 {
		t.Errorf("expected daily_count 20, got %d", repo.row("vip-1").DailyCount)
	}
}

func TestClaim_PartialFailure_ReportsObtainedRewards(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := &stubRewardClient{attempt: func(call int) (*domain.Reward, error) {
		if call <= 2 {
			return &domain.Reward{Code: "CODE-1", Campaign: "spring"}, nil
		}
		return nil, &domain.UpstreamError{Reason: domain.UpstreamTransport, Err: errors.New("timeout")}
	}}
	svc, _ := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("partial failure must not be an error: %v", err)
	}

	if summary.State != domain.StateRewarded {
		t.Fatalf("partial success is reported as success, got %q", summary.State)
	}
	if len(summary.Rewards) != 2 {
		t.Fatalf("expected exactly 2 rewards, got %d", len(summary.Rewards))
	}
	row := repo.row("user-1")
	if row.DailyCount != 2 {
		t.Errorf("expected daily_count 2, got %d", row.DailyCount)
	}
	if !row.ClaimedToday {
		t.Error("expected claimed_today set after partial failure")
	}
	// One failure halts the batch: 2 successes + 1 failure = 3 calls, not 5.
	if client.callCount() != 3 {
		t.Errorf("expected 3 attempts (stop on first failure), got %d", client.callCount())
	}
}

func TestClaim_FirstAttemptFails_EmptyHanded(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := &stubRewardClient{attempt: func(int) (*domain.Reward, error) {
		return nil, &domain.UpstreamError{Reason: domain.UpstreamEmpty}
	}}
	svc, rec := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.State != domain.StateEmptyHanded {
		t.Fatalf("expected %q, got %q", domain.StateEmptyHanded, summary.State)
	}
	if len(summary.Rewards) != 0 {
		t.Errorf("expected no rewards, got %d", len(summary.Rewards))
	}
	row := repo.row("user-1")
	if row.DailyCount != 0 {
		t.Errorf("expected daily_count 0, got %d", row.DailyCount)
	}
	if !row.ClaimedToday {
		t.Error("empty-handed outcome still arms the one-shot flag")
	}
	if rec.last() != domain.ActionClaimEmpty {
		t.Errorf("expected %q recorded, got %q", domain.ActionClaimEmpty, rec.last())
	}
}

func TestClaim_QuotaExhausted_NoRewardCalls(t *testing.T) {
	repo := newStubEntitlementRepo()
	repo.rows["user-1"] = &domain.UserEntitlement{Identity: "user-1", DailyCount: 5, TotalCount: 12}
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.State != domain.StateQuotaExhausted {
		t.Fatalf("expected %q, got %q", domain.StateQuotaExhausted, summary.State)
	}
	if client.callCount() != 0 {
		t.Errorf("quota-exhausted claim must trigger no reward calls, got %d", client.callCount())
	}
	row := repo.row("user-1")
	if row.DailyCount != 5 || row.TotalCount != 12 {
		t.Errorf("counters must be unchanged, got %d/%d", row.DailyCount, row.TotalCount)
	}
	if !row.ClaimedToday {
		t.Error("quota exhaustion persists the one-shot flag")
	}
}

func TestClaim_AlreadyClaimed_ReportsRemainingQuota(t *testing.T) {
	repo := newStubEntitlementRepo()
	repo.rows["user-1"] = &domain.UserEntitlement{Identity: "user-1", DailyCount: 3, ClaimedToday: true}
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.State != domain.StateAlreadyClaimed {
		t.Fatalf("expected %q, got %q", domain.StateAlreadyClaimed, summary.State)
	}
	if summary.Remaining != 2 {
		t.Errorf("expected informational remaining 2, got %d", summary.Remaining)
	}
	if client.callCount() != 0 {
		t.Error("already-claimed must not reach the reward client")
	}
}

func TestClaim_Banned_NeverTouchesStoreOrClient(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, rec := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(context.Background(), claimInput("banned-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.State != domain.StateBanned {
		t.Fatalf("expected %q, got %q", domain.StateBanned, summary.State)
	}
	if repo.getCalls != 0 || repo.incCalls != 0 || repo.markCalls != 0 {
		t.Errorf("banned claim reached the store: get=%d inc=%d mark=%d",
			repo.getCalls, repo.incCalls, repo.markCalls)
	}
	if client.callCount() != 0 {
		t.Errorf("banned claim reached the reward client: %d calls", client.callCount())
	}
	if rec.last() != domain.ActionClaimBanned {
		t.Errorf("expected %q recorded, got %q", domain.ActionClaimBanned, rec.last())
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestClaim_ConcurrentSameIdentity_NoDoubleAward(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Claim(context.Background(), claimInput("user-1")); err != nil {
				t.Errorf("claim failed: %v", err)
			}
		}()
	}
	wg.Wait()

	row := repo.row("user-1")
	if row.DailyCount != 5 {
		t.Fatalf("two concurrent claims awarded %d, want exactly 5", row.DailyCount)
	}
	if client.callCount() != 5 {
		t.Errorf("expected exactly 5 reward attempts in total, got %d", client.callCount())
	}
}

func TestClaim_ConcurrentDistinctIdentities_BothServed(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	var wg sync.WaitGroup
	for _, id := range []string{"user-1", "user-2"} {
		wg.Add(1)
		go func(identity string) {
			defer wg.Done()
			if _, err := svc.Claim(context.Background(), claimInput(identity)); err != nil {
				t.Errorf("claim for %s failed: %v", identity, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"user-1", "user-2"} {
		if repo.row(id).DailyCount != 5 {
			t.Errorf("identity %s: daily_count %d, want 5", id, repo.row(id).DailyCount)
		}
	}
}

// ---------------------------------------------------------------------------
// Storage failures
// ---------------------------------------------------------------------------

func TestClaim_StoreUnavailableOnLoad(t *testing.T) {
	repo := newStubEntitlementRepo()
	repo.getErr = errors.New("mongo down")
	svc, _ := newRedemptionSvc(repo, alwaysSucceed())

	_, err := svc.Claim(context.Background(), claimInput("user-1"))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestClaim_StoreFailsMidBatch_AbortsWithoutFurtherAwards(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	// First increment succeeds, the rest fail.
	flaky := &flakyIncrementRepo{stubEntitlementRepo: repo, failAfter: 1}
	svc := NewRedemptionService(flaky, client, &stubRecorder{}, testPolicy(), zerolog.Nop())

	_, err := svc.Claim(context.Background(), claimInput("user-1"))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	// Exactly one reward was credited before the store went away.
	if repo.row("user-1").DailyCount != 1 {
		t.Errorf("expected daily_count 1 (credited before failure), got %d", repo.row("user-1").DailyCount)
	}
	// No further attempts after the failed commit.
	if client.callCount() != 2 {
		t.Errorf("expected 2 attempts (second one's credit failed), got %d", client.callCount())
	}
}

// flakyIncrementRepo lets the first failAfter increments through, then fails.
type flakyIncrementRepo struct {
	*stubEntitlementRepo
	failAfter int
	succeeded int
}

func (r *flakyIncrementRepo) IncrementOnSuccess(ctx context.Context, identity string, n int) error {
	if r.succeeded >= r.failAfter {
		return errors.New("mongo down")
	}
	r.succeeded++
	return r.stubEntitlementRepo.IncrementOnSuccess(ctx, identity, n)
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestClaim_TransportCancellation_DoesNotDiscardConfirmedRewards(t *testing.T) {
	repo := newStubEntitlementRepo()
	ctx, cancel := context.WithCancel(context.Background())

	client := &stubRewardClient{attempt: func(call int) (*domain.Reward, error) {
		if call == 1 {
			// Transport gives up while the first attempt is in flight.
			cancel()
		}
		return &domain.Reward{Code: "CODE-1", Campaign: "spring"}, nil
	}}
	svc, _ := newRedemptionSvc(repo, client)

	summary, err := svc.Claim(ctx, claimInput("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Rewards) != 5 {
		t.Fatalf("cancellation voided confirmed rewards: got %d, want 5", len(summary.Rewards))
	}
	if repo.row("user-1").DailyCount != 5 {
		t.Errorf("expected all 5 rewards credited, got %d", repo.row("user-1").DailyCount)
	}
}

// ---------------------------------------------------------------------------
// Invariants
// ---------------------------------------------------------------------------

func TestClaim_DailyCountNeverExceedsCeiling(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := alwaysSucceed()
	svc, _ := newRedemptionSvc(repo, client)

	// Run a claim, reset, claim again; the ceiling must hold every day.
	for day := 0; day < 3; day++ {
		if _, err := svc.Claim(context.Background(), claimInput("user-1")); err != nil {
			t.Fatalf("day %d claim failed: %v", day, err)
		}
		row := repo.row("user-1")
		if row.DailyCount < 0 || row.DailyCount > 5 {
			t.Fatalf("day %d: daily_count %d outside [0,5]", day, row.DailyCount)
		}
		if err := repo.ResetAllDaily(context.Background()); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
	}

	if repo.row("user-1").TotalCount != 15 {
		t.Errorf("total_count should accumulate across days, got %d", repo.row("user-1").TotalCount)
	}
}

func TestClaim_TotalCountIsMonotonic(t *testing.T) {
	repo := newStubEntitlementRepo()
	client := &stubRewardClient{attempt: func(call int) (*domain.Reward, error) {
		if call%2 == 0 {
			return nil, &domain.UpstreamError{Reason: domain.UpstreamEmpty}
		}
		return &domain.Reward{Code: "CODE-1"}, nil
	}}
	svc, _ := newRedemptionSvc(repo, client)

	prev := 0
	for day := 0; day < 4; day++ {
		_, err := svc.Claim(context.Background(), claimInput("user-1"))
		if err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		total := repo.row("user-1").TotalCount
		if total < prev {
			t.Fatalf("total_count decreased from %d to %d", prev, total)
		}
		prev = total
		_ = repo.ResetAllDaily(context.Background())
	}
}
