// Package reward implements the HTTP client for the external reward API.
package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/api/metrics"
	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for the reward endpoint.
type Config struct {
	URL             string
	GameID          string
	EventID         string
	Timeout         time.Duration
	DefaultCampaign string
}

// Client issues one claim request per call. Each request carries a freshly
// generated session id — the upstream uses it for dedup/idempotency, so an id
// is never reused across attempts. The client performs no retries of its own.
type Client struct {
	http *http.Client
	cfg  Config
	log  zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		cfg:  cfg,
		log:  log,
	}
}

type claimRequest struct {
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id"`
	EventID   string `json:"event_id"`
}

type claimResponse struct {
	RewardInfo struct {
		Reward struct {
			CouponCode   string `json:"coupon_code"`
			CampaignName string `json:"campaign_name"`
		} `json:"reward"`
	} `json:"reward_info"`
}

// AttemptClaim performs one outbound claim. Every failure mode — transport
// error, non-2xx status, undecodable body, missing coupon — is returned as a
// *domain.UpstreamError; nothing escapes this boundary as a panic.
func (c *Client) AttemptClaim(ctx context.Context) (*domain.Reward, error) {
	reward, err := c.attempt(ctx)
	metrics.RewardAttemptsTotal.WithLabelValues(attemptResult(err)).Inc()
	return reward, err
}

func attemptResult(err error) string {
	if err == nil {
		return "success"
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return string(ue.Reason)
	}
	return string(domain.UpstreamTransport)
}

func (c *Client) attempt(ctx context.Context) (*domain.Reward, error) {
	sessionID := uuid.NewString()

	body, err := json.Marshal(claimRequest{
		SessionID: sessionID,
		GameID:    c.cfg.GameID,
		EventID:   c.cfg.EventID,
	})
	if err != nil {
		return nil, &domain.UpstreamError{Reason: domain.UpstreamMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.UpstreamError{Reason: domain.UpstreamTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Reason: domain.UpstreamTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{
			Reason: domain.UpstreamStatus,
			Err:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var decoded claimResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.UpstreamError{Reason: domain.UpstreamMalformed, Err: err}
	}

	code := decoded.RewardInfo.Reward.CouponCode
	if code == "" {
		c.log.Debug().Str("session_id", sessionID).Msg("upstream answered without a coupon")
		return nil, &domain.UpstreamError{Reason: domain.UpstreamEmpty}
	}

	campaign := decoded.RewardInfo.Reward.CampaignName
	if campaign == "" {
		campaign = c.cfg.DefaultCampaign
	}

	return &domain.Reward{Code: code, Campaign: campaign}, nil
}
