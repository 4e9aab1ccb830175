package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

const collectionEntitlements = "user_entitlements"

type EntitlementRepository struct {
	col *mongo.Collection
}

func NewEntitlementRepository(db *mongo.Database) *EntitlementRepository {
	return &EntitlementRepository{col: db.Collection(collectionEntitlements)}
}

// GetOrCreate upserts the row for identity in a single atomic statement.
// $setOnInsert seeds the zeroed counters; under concurrent first contact the
// unique _id guarantees at most one row, with no read-then-write window.
// Display metadata is refreshed last-write-wins on every call.
func (r *EntitlementRepository) GetOrCreate(ctx context.Context, identity string, defaults ports.DisplayDefaults) (*domain.UserEntitlement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"_id": identity}
	update := bson.M{
		"$setOnInsert": bson.M{
			"daily_count":   0,
			"total_count":   0,
			"claimed_today": false,
			"created_at":    now,
		},
		"$set": bson.M{
			"display_name": defaults.DisplayName,
			"handle":       defaults.Handle,
			"updated_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var ent domain.UserEntitlement
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// IncrementOnSuccess applies one atomic $inc to both counters. Callers invoke
// it once per confirmed reward so an interruption never loses acknowledged
// credits and never applies a partial batch.
func (r *EntitlementRepository) IncrementOnSuccess(ctx context.Context, identity string, n int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": identity}, bson.M{
		"$inc": bson.M{"daily_count": n, "total_count": n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// MarkClaimed sets the one-shot flag. Setting an already-set flag is a no-op,
// so the operation is idempotent.
func (r *EntitlementRepository) MarkClaimed(ctx context.Context, identity string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": identity}, bson.M{
		"$set": bson.M{"claimed_today": true, "updated_at": time.Now().UTC()},
	})
	return err
}

// ResetAllDaily zeroes daily counters and re-arms the one-shot flag for every
// row. UpdateMany is atomic per document and sets absolute values, so it
// cannot interleave destructively with concurrent $inc deltas; running it
// twice back-to-back leaves the same state as running it once.
func (r *EntitlementRepository) ResetAllDaily(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.UpdateMany(ctx, bson.M{}, bson.M{
		"$set": bson.M{"daily_count": 0, "claimed_today": false},
	})
	return err
}

func (r *EntitlementRepository) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *EntitlementRepository) TotalRedeemed(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total_count"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// EnsureIndexes creates the secondary indexes used by reporting queries.
func (r *EntitlementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "handle", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
