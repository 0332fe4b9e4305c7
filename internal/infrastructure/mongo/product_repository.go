package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

type ProductRepository struct {
	coll *mongo.Collection
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find product %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (r *ProductRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	filter, err := productFilter(f)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode products: %w", err)
	}
	out := make([]*domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func productFilter(f domain.Filter) (bson.M, error) {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	price := bson.M{}
	if f.MinPrice != nil {
		v, err := toDecimal128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if f.MaxPrice != nil {
		v, err := toDecimal128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	return filter, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	doc, err := fromProduct(p)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert product %s: %w", p.ID, err)
	}
	return nil
}

// Update validates patch against the current document, then $sets only the
// patched fields. Stock moved by AdjustStock in the meantime is kept unless
// the patch sets it.
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Product, error) {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cur.ApplyPatch(patch); err != nil {
		return nil, err
	}
	set, err := patchSet(cur, patch)
	if err != nil {
		return nil, err
	}

	var doc productDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: update product %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// patchSet takes the validated values from p for the fields patch names.
func patchSet(p *domain.Product, patch domain.Patch) (bson.M, error) {
	var e decEncoder
	set := bson.M{"updatedAt": p.UpdatedAt}
	if patch.Name != nil {
		set["name"] = p.Name
	}
	if patch.Description != nil {
		set["description"] = p.Description
	}
	if patch.Price != nil {
		set["price"] = e.enc(p.Price)
	}
	if patch.OriginalPrice != nil && p.OriginalPrice != nil {
		set["originalPrice"] = e.enc(*p.OriginalPrice)
	}
	if patch.Category != nil {
		set["category"] = string(p.Category)
	}
	if patch.Image != nil {
		set["image"] = p.Image
	}
	if patch.Images != nil {
		set["images"] = p.Images
	}
	if patch.Stock != nil {
		set["stock"] = p.Stock
	}
	if patch.Rating != nil {
		set["rating"] = p.Rating
	}
	if patch.Reviews != nil {
		set["reviews"] = p.Reviews
	}
	if patch.IsActive != nil {
		set["isActive"] = p.IsActive
	}
	return set, e.err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustStock applies delta with a single conditional findAndModify. For a
// decrement the filter only matches while stock covers it.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stock": 1})

	var after struct {
		Stock int `bson:"stock"`
	}
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&after)
	if err == nil {
		return after.Stock, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("mongo: adjust stock %s: %w", id, err)
	}

	var cur struct {
		Name  string `bson:"name"`
		Stock int    `bson:"stock"`
	}
	err = r.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"name": 1, "stock": 1})).Decode(&cur)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: adjust stock %s: %w", id, err)
	}
	return 0, &domain.InsufficientStockError{ProductID: id, Name: cur.Name, Available: cur.Stock, Requested: -delta}
}
