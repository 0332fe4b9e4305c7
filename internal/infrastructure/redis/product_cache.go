package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

const defaultKeyPrefix = "storefront:product:"

// ProductCache stores display copies of products as JSON strings with a TTL.
type ProductCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewProductCache(client redis.Cmdable, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

func (c *ProductCache) key(id string) string { return c.prefix + id }

func (c *ProductCache) Get(ctx context.Context, id string) (*catalog.Product, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get product %s: %w", id, err)
	}
	var doc productDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next load.
		return nil, false, nil
	}
	return doc.toDomain(), true, nil
}

func (c *ProductCache) Set(ctx context.Context, p *catalog.Product) error {
	raw, err := json.Marshal(fromDomain(p))
	if err != nil {
		return fmt.Errorf("redis: encode product %s: %w", p.ID, err)
	}
	if err := c.client.Set(ctx, c.key(p.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set product %s: %w", p.ID, err)
	}
	return nil
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: invalidate products: %w", err)
	}
	return nil
}

type productDoc struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Category      string           `json:"category"`
	Image         string           `json:"image,omitempty"`
	Images        []string         `json:"images,omitempty"`
	Stock         int              `json:"stock"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
	IsActive      bool             `json:"isActive"`
	CreatedBy     string           `json:"createdBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func fromDomain(p *catalog.Product) productDoc {
	return productDoc{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Category:      string(p.Category),
		Image:         p.Image,
		Images:        p.Images,
		Stock:         p.Stock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		IsActive:      p.IsActive,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d productDoc) toDomain() *catalog.Product {
	return &catalog.Product{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Category:      catalog.Category(d.Category),
		Image:         d.Image,
		Images:        d.Images,
		Stock:         d.Stock,
		Rating:        d.Rating,
		Reviews:       d.Reviews,
		IsActive:      d.IsActive,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
