package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleTransport = "transport"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrClientNotFound = errors.New("client not found")
var ErrClientExists = errors.New("client already exists")

// TransportClient models a machine caller of this service: the chat transport
// that relays end-user claims, or an admin tool. End-user identities are not
// accounts here — they arrive as transport-asserted fields on each request.
type TransportClient struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
