package handler

import "github.com/rewarddesk/coupon-service/internal/core/ports"

// --- Request / Response types ---

type claimRequest struct {
	// MessageID is the transport's delivery id, used to drop redeliveries.
	MessageID string `json:"message_id" validate:"required"`
	// Identity is the transport-asserted stable user key.
	Identity    string `json:"identity" validate:"required"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
}

type claimResponse struct {
	State     string             `json:"state"`
	Remaining int                `json:"remaining"`
	Rewards   []ports.RewardItem `json:"rewards,omitempty"`
	Message   string             `json:"message"`
}

// stateDuplicateDelivery is reported when the same message id arrives twice.
// It is a transport artifact, not a claim outcome, so it lives here rather
// than in the domain state set.
const stateDuplicateDelivery = "duplicate_delivery"
