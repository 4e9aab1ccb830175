package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/api/metrics"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// DeliveryDedup answers whether a transport message id was already processed.
type DeliveryDedup interface {
	IsDuplicate(ctx context.Context, messageID string) (bool, error)
	Mark(ctx context.Context, messageID string) error
}

// ClaimHandler handles HTTP requests for coupon claims.
type ClaimHandler struct {
	service ports.RedemptionService
	dedup   DeliveryDedup
	log     zerolog.Logger
}

func NewClaimHandler(service ports.RedemptionService, dedup DeliveryDedup, log zerolog.Logger) *ClaimHandler {
	return &ClaimHandler{service: service, dedup: dedup, log: log}
}

// Claim handles POST /v1/claims.
//
// @Summary      Redeem today's coupon allowance for a user
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      claimRequest  true  "Claim message from the chat transport"
// @Success      200   {object}  claimResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/claims [post]
func (h *ClaimHandler) Claim(c echo.Context) error {
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	// Chat transports redeliver when an ack is lost. A redelivered message id
	// must not re-run the claim, or a retried delivery could hand out a second
	// batch of coupons.
	dup, err := h.dedup.IsDuplicate(ctx, req.MessageID)
	if err != nil {
		// Dedup is best-effort: a redis outage degrades to at-least-once
		// delivery, it does not block claims. The one-shot flag still protects
		// against double awards.
		h.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("delivery dedup check failed")
	}
	if dup {
		metrics.DuplicateDeliveriesTotal.WithLabelValues("hit").Inc()
		return c.JSON(http.StatusOK, claimResponse{
			State:   stateDuplicateDelivery,
			Message: "message already processed",
		})
	}
	metrics.DuplicateDeliveriesTotal.WithLabelValues("miss").Inc()

	start := time.Now()
	summary, err := h.service.Claim(ctx, ports.ClaimInput{
		Identity:    req.Identity,
		DisplayName: req.DisplayName,
		Handle:      req.Handle,
	})
	if err != nil {
		// The message is intentionally not marked processed: a retry after a
		// storage failure should run the claim again.
		metrics.ClaimsTotal.WithLabelValues("error").Inc()
		metrics.ClaimDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	state := string(summary.State)
	metrics.ClaimsTotal.WithLabelValues(state).Inc()
	metrics.ClaimDuration.WithLabelValues(state).Observe(time.Since(start).Seconds())
	metrics.RewardsIssuedTotal.Add(float64(len(summary.Rewards)))

	if err := h.dedup.Mark(ctx, req.MessageID); err != nil {
		h.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("delivery dedup mark failed")
	}

	return c.JSON(http.StatusOK, claimResponse{
		State:     state,
		Remaining: summary.Remaining,
		Rewards:   summary.Rewards,
		Message:   summary.Message,
	})
}
