package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// AuthService registers transport clients and exchanges their credentials for
// short-lived HS256 tokens.
type AuthService struct {
	repo      ports.AuthRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, name, secret, role string) (*domain.TransportClient, error) {
	if name == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role != domain.RoleAdmin && role != domain.RoleTransport {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &domain.TransportClient{
		Name:       name,
		SecretHash: string(hash),
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return s.repo.Create(ctx, client)
}

func (s *AuthService) IssueToken(ctx context.Context, name, secret string) (string, *domain.TransportClient, error) {
	if name == "" || secret == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	client, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(client)
	if err != nil {
		return "", nil, err
	}

	return token, client, nil
}

func (s *AuthService) generateToken(client *domain.TransportClient) (string, error) {
	claims := jwt.MapClaims{
		"client": client.Name,
		"role":   client.Role,
		"exp":    time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
