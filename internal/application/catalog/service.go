package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"
	cacheName      = "product"

	useCaseList   = "catalog.list"
	useCaseGet    = "catalog.get"
	useCaseCreate = "catalog.create"
	useCaseUpdate = "catalog.update"
	useCaseDelete = "catalog.delete"

	lookupConcurrency = 8
)

// Service is the product catalog. Reads by id go through the optional cache;
// stock decisions never do.
type Service struct {
	products domain.Repository
	tx       application.Transactor
	cache    domain.Cache
	ids      application.IDGenerator
	group    singleflight.Group

	inst    *application.Instrument
	lookups observability.Counter // cache_lookups_total{cache,result}
}

// NewService accepts a nil cache. Reads use products; updates run in tx so
// they serialise with checkouts touching the same stock.
func NewService(
	products domain.Repository,
	tx application.Transactor,
	cache domain.Cache,
	ids application.IDGenerator,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		products: products,
		tx:       tx,
		cache:    cache,
		ids:      ids,
		inst:     application.NewInstrument(tel, catalogService),
		lookups:  tel.Metrics().Counter(observability.MCacheLookups),
	}
}

func (s *Service) List(ctx context.Context, f domain.Filter) (_ []*domain.Product, err error) {
	run := s.inst.Begin(ctx, useCaseList, "ListProducts",
		attribute.String("catalog.category", string(f.Category)),
	)
	ctx = run.Context()
	defer func() { run.End(err) }()

	if f.Category != "" && !f.Category.Valid() {
		return nil, run.Fail("VALIDATION_FAILED", errUnknownCategory(f.Category))
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, run.Fail("VALIDATION_FAILED", errPriceRange)
	}
	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, run.Fail("REPO_LIST_FAILED", fmt.Errorf("catalog: list: %w", err))
	}
	run.Field("count", len(products))
	return products, nil
}

// Get reads a product through the cache. Concurrent misses for the same id
// share one store read.
func (s *Service) Get(ctx context.Context, id string) (_ *domain.Product, err error) {
	run := s.inst.Begin(ctx, useCaseGet, "GetProduct", attribute.String("product.id", id))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if id == "" {
		return nil, run.Fail("PRODUCT_ID_REQUIRED", errMissingID)
	}

	if p, ok := s.cached(ctx, run, id); ok {
		run.SetStatus("CACHE_HIT")
		return p, nil
	}

	v, err, shared := s.group.Do(id, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		p, err := s.products.Get(loadCtx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if cerr := s.cache.Set(loadCtx, p); cerr != nil {
				run.Logger().Warn("cache_set_failed",
					observability.F("product_id", id),
					observability.Err(cerr),
				)
			}
		}
		return p, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, run.Fail("NOT_FOUND", err)
		}
		return nil, run.Fail("REPO_GET_FAILED", fmt.Errorf("catalog: get: %w", err))
	}
	run.Field("shared_load", shared)
	return v.(*domain.Product).Clone(), nil
}

// Lookup reads several products through the cache for display. Products that
// no longer exist are absent from the result; other failures are returned
// together with whatever was found.
func (s *Service) Lookup(ctx context.Context, ids ...string) (map[string]*domain.Product, error) {
	var (
		mu    sync.Mutex
		found = make(map[string]*domain.Product, len(ids))
		seen  = make(map[string]struct{}, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		g.Go(func() error {
			p, err := s.Get(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			found[id] = p
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return found, err
}

func (s *Service) cached(ctx context.Context, run *application.Run, id string) (*domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	p, ok, err := s.cache.Get(ctx, id)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
		run.Logger().Warn("cache_get_failed",
			observability.F("product_id", id),
			observability.Err(err),
		)
	case ok:
		result = "hit"
	}
	s.lookups.Add(1, observability.L("cache", cacheName), observability.L("result", result))
	return p, ok && err == nil
}

func (s *Service) Create(ctx context.Context, createdBy string, d domain.Draft) (_ *domain.Product, err error) {
	run := s.inst.Begin(ctx, useCaseCreate, "CreateProduct")
	ctx = run.Context()
	defer func() { run.End(err) }()

	p, err := domain.New(s.ids.NewID(), createdBy, d)
	if err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, run.Fail("REPO_INSERT_FAILED", fmt.Errorf("catalog: insert: %w", err))
	}
	run.Field("product_id", p.ID)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (_ *domain.Product, err error) {
	run := s.inst.Begin(ctx, useCaseUpdate, "UpdateProduct", attribute.String("product.id", id))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if id == "" {
		return nil, run.Fail("PRODUCT_ID_REQUIRED", errMissingID)
	}
	var p *domain.Product
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos application.Repositories) error {
		updated, uerr := repos.Products.Update(ctx, id, patch)
		p = updated
		return uerr
	})
	switch {
	case errors.Is(err, errs.ErrValidation):
		return nil, run.Fail("VALIDATION_FAILED", err)
	case err != nil:
		return nil, run.Fail(lookupStatus(err), fmt.Errorf("catalog: update: %w", err))
	}
	s.Invalidate(ctx, id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	run := s.inst.Begin(ctx, useCaseDelete, "DeleteProduct", attribute.String("product.id", id))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if id == "" {
		return run.Fail("PRODUCT_ID_REQUIRED", errMissingID)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return run.Fail(lookupStatus(err), err)
	}
	s.Invalidate(ctx, id)
	return nil
}

// Invalidate drops cached copies. Failures are logged; the entries expire on their own.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		s.group.Forget(id)
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		logctx.FromOr(ctx, s.inst.Logger()).Warn("cache_invalidate_failed",
			observability.F("product_ids", ids),
			observability.Err(err),
		)
	}
}

func lookupStatus(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "NOT_FOUND"
	}
	return "REPO_FAILED"
}
