package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/cart"
)

type CartRepository struct {
	coll *mongo.Collection
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find cart %s: %w", userID, err)
	}
	return doc.toDomain(), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	doc, err := fromCart(c)
	if err != nil {
		return err
	}
	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": c.UserID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: save cart %s: %w", c.UserID, err)
	}
	return nil
}
