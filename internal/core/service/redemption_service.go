package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
	"github.com/rewarddesk/coupon-service/internal/pkg/keymutex"
)

// ActivityRecorder receives audit entries for user-facing interactions.
// Implementations must not block the claim path (the queue dispatcher buffers).
type ActivityRecorder interface {
	Record(identity, handle, action string)
}

// RedemptionService implements the per-identity claim state machine:
// banned → already_claimed → quota_exhausted → claiming → done. All claiming
// for one identity is serialized by an identity-scoped lock held across every
// store and reward-client call in the sequence.
type RedemptionService struct {
	entitlements ports.EntitlementRepository
	rewards      ports.RewardClient
	recorder     ActivityRecorder
	policy       domain.QuotaPolicy
	locks        *keymutex.KeyMutex
	log          zerolog.Logger
}

func NewRedemptionService(
	entitlements ports.EntitlementRepository,
	rewards ports.RewardClient,
	recorder ActivityRecorder,
	policy domain.QuotaPolicy,
	log zerolog.Logger,
) *RedemptionService {
	return &RedemptionService{
		entitlements: entitlements,
		rewards:      rewards,
		recorder:     recorder,
		policy:       policy,
		locks:        keymutex.New(),
		log:          log,
	}
}

// Claim processes one claim request for the given identity. Business outcomes
// (banned, already claimed, quota exhausted, rewarded, empty-handed) come back
// as a ClaimSummary with a nil error; only storage unavailability is an error,
// and it wraps domain.ErrStorageUnavailable.
func (s *RedemptionService) Claim(ctx context.Context, in ports.ClaimInput) (*ports.ClaimSummary, error) {
	// Deny-listed identities are rejected before any store or reward access.
	if s.policy.Banned(in.Identity) {
		s.recorder.Record(in.Identity, in.Handle, domain.ActionClaimBanned)
		return &ports.ClaimSummary{
			State:   domain.StateBanned,
			Message: "this account is blocked from the reward service",
		}, nil
	}

	s.locks.Lock(in.Identity)
	defer s.locks.Unlock(in.Identity)

	// Entitlement is read only after the lock is held: a remainder computed
	// from a pre-serialization read could double-award against a concurrent
	// request for the same identity.
	ent, err := s.entitlements.GetOrCreate(ctx, in.Identity, ports.DisplayDefaults{
		DisplayName: in.DisplayName,
		Handle:      in.Handle,
	})
	if err != nil {
		return nil, s.storageErr("load entitlement", in.Identity, err)
	}

	maxAllowed := s.policy.MaxAllowed(in.Identity)

	if ent.ClaimedToday {
		s.log.Debug().Str("identity", in.Identity).Msg("repeat claim rejected")
		s.recorder.Record(in.Identity, in.Handle, domain.ActionClaimRepeat)
		return &ports.ClaimSummary{
			State:     domain.StateAlreadyClaimed,
			Remaining: clampNonNegative(maxAllowed - ent.DailyCount),
			Message: fmt.Sprintf("already claimed today (%d of %d used), come back after the next reset",
				ent.DailyCount, maxAllowed),
		}, nil
	}

	remaining := maxAllowed - ent.DailyCount
	if remaining <= 0 {
		if err := s.entitlements.MarkClaimed(ctx, in.Identity); err != nil {
			return nil, s.storageErr("mark claimed", in.Identity, err)
		}
		s.recorder.Record(in.Identity, in.Handle, domain.ActionClaimExhausted)
		return &ports.ClaimSummary{
			State:   domain.StateQuotaExhausted,
			Message: "daily quota exhausted, come back after the next reset",
		}, nil
	}

	// Once attempts start, the sequence runs to its own completion: a reward
	// confirmed by the upstream is credited even if the transport has already
	// abandoned the request. There is no undo for an issued coupon.
	claimCtx := context.WithoutCancel(ctx)

	rewards := make([]ports.RewardItem, 0, remaining)
	for i := 0; i < remaining; i++ {
		reward, err := s.rewards.AttemptClaim(claimCtx)
		if err != nil {
			s.logAttemptFailure(in.Identity, i, err)
			// One failed attempt ends the batch; never hammer an exhausted or
			// erroring upstream with the rest of the quota.
			break
		}

		// Credit durably per reward, not once at the end of the batch: a crash
		// mid-batch must never have acknowledged coupons that were not counted.
		if err := s.entitlements.IncrementOnSuccess(claimCtx, in.Identity, 1); err != nil {
			return nil, s.storageErr("credit reward", in.Identity, err)
		}
		rewards = append(rewards, ports.RewardItem{Code: reward.Code, Campaign: reward.Campaign})
	}

	if err := s.entitlements.MarkClaimed(claimCtx, in.Identity); err != nil {
		return nil, s.storageErr("mark claimed", in.Identity, err)
	}

	left := remaining - len(rewards)
	if len(rewards) == 0 {
		s.recorder.Record(in.Identity, in.Handle, domain.ActionClaimEmpty)
		return &ports.ClaimSummary{
			State:     domain.StateEmptyHanded,
			Remaining: left,
			Message:   "no rewards available right now, try again after the next reset",
		}, nil
	}

	s.log.Info().
		Str("identity", in.Identity).
		Int("rewards", len(rewards)).
		Int("attempted", remaining).
		Msg("claim completed")
	s.recorder.Record(in.Identity, in.Handle, domain.ActionClaimRewarded)

	return &ports.ClaimSummary{
		State:     domain.StateRewarded,
		Remaining: left,
		Rewards:   rewards,
		Message:   fmt.Sprintf("redeemed %d coupon(s)", len(rewards)),
	}, nil
}

// logAttemptFailure logs an upstream failure: empty responses are routine
// (pool exhausted), anything else is worth a warning.
func (s *RedemptionService) logAttemptFailure(identity string, attempt int, err error) {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) && ue.Reason == domain.UpstreamEmpty {
		s.log.Debug().Str("identity", identity).Int("attempt", attempt).Msg("upstream returned no reward")
		return
	}
	s.log.Warn().Err(err).Str("identity", identity).Int("attempt", attempt).Msg("reward attempt failed")
}

func (s *RedemptionService) storageErr(op, identity string, err error) error {
	s.log.Error().Err(err).Str("identity", identity).Str("op", op).Msg("entitlement store failure")
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
