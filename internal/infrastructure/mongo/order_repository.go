package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
)

const idempotencyIndex = "user_idempotency_unique"

type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	doc, err := fromOrder(o)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), idempotencyIndex) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("mongo: insert order %s: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update rewrites the mutable fields only; items and totals are fixed at insert.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": bson.M{
		"orderStatus":    string(o.Status),
		"paymentStatus":  string(o.PaymentStatus),
		"trackingNumber": o.TrackingNumber,
		"notes":          o.Notes,
		"updatedAt":      o.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongo: update order %s: %w", o.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, userID, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"user": userID, "idempotencyKey": key})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find order: %w", err)
	}
	return doc.toDomain(), nil
}
