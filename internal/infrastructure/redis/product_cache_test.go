package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

func sampleProduct() *catalog.Product {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &catalog.Product{
		ID:          "p1",
		Name:        "Notebook",
		Description: "Lined",
		Price:       decimal.RequireFromString("19.90"),
		Category:    catalog.CategoryBooks,
		Stock:       4,
		IsActive:    true,
		CreatedBy:   "admin",
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestSetWritesJSONWithTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)
	p := sampleProduct()

	raw, err := json.Marshal(fromDomain(p))
	require.NoError(t, err)
	mock.ExpectSet("storefront:product:p1", raw, time.Minute).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)
	p := sampleProduct()

	raw, err := json.Marshal(fromDomain(p))
	require.NoError(t, err)
	mock.ExpectGet("storefront:product:p1").SetVal(string(raw))

	got, ok, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Notebook", got.Name)
	assert.True(t, got.Price.Equal(p.Price))
	assert.Equal(t, catalog.CategoryBooks, got.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)

	mock.ExpectGet("storefront:product:nope").RedisNil()

	_, ok, err := cache.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptEntryIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)

	mock.ExpectGet("storefront:product:p1").SetVal("{not json")

	_, ok, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)

	mock.ExpectGet("storefront:product:p1").SetErr(errors.New("connection refused"))

	_, ok, err := cache.Get(context.Background(), "p1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestInvalidateDeletesAllKeys(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewProductCache(db, time.Minute)

	mock.ExpectDel("storefront:product:a", "storefront:product:b").SetVal(2)

	require.NoError(t, cache.Invalidate(context.Background(), "a", "b"))
	require.NoError(t, cache.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
