package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
)

const collectionClients = "transport_clients"

type AuthRepository struct {
	col *mongo.Collection
}

func NewAuthRepository(db *mongo.Database) *AuthRepository {
	return &AuthRepository{col: db.Collection(collectionClients)}
}

type mongoClient struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	SecretHash string             `bson:"secret_hash"`
	Role       string             `bson:"role"`
	CreatedAt  int64              `bson:"created_at"`
	UpdatedAt  int64              `bson:"updated_at"`
}

func (r *AuthRepository) Create(ctx context.Context, client *domain.TransportClient) (*domain.TransportClient, error) {
	doc := mongoClient{
		Name:       client.Name,
		SecretHash: client.SecretHash,
		Role:       client.Role,
		CreatedAt:  client.CreatedAt.Unix(),
		UpdatedAt:  client.UpdatedAt.Unix(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrClientExists
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}

	// fetch back to get ID
	return r.FindByName(ctx, client.Name)
}

func (r *AuthRepository) FindByName(ctx context.Context, name string) (*domain.TransportClient, error) {
	var mc mongoClient
	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}

	return &domain.TransportClient{
		ID:         mc.ID.Hex(),
		Name:       mc.Name,
		SecretHash: mc.SecretHash,
		Role:       mc.Role,
		CreatedAt:  unixToTime(mc.CreatedAt),
		UpdatedAt:  unixToTime(mc.UpdatedAt),
	}, nil
}

// EnsureIndexes creates the unique name index Create relies on to reject
// duplicate registrations.
func (r *AuthRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create client indexes: %w", err)
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
