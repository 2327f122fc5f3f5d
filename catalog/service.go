package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/querycache"
	"github.com/jrsteele09/go-catalog-client/users"
	"github.com/rs/zerolog"
)

const (
	productsKey   = "products"
	categoriesKey = "categories"
)

// UserSource supplies the signed-in user for permission checks.
type UserSource interface {
	User() *users.User
}

// Service serves catalog reads through the query cache and applies product
// deletes optimistically.
type Service struct {
	api                 *API
	cache               *querycache.Cache
	users               UserSource
	limit               int
	staleTime           time.Duration
	categoriesStaleTime time.Duration
	logger              zerolog.Logger
}

type ServiceConfig interface {
	config.APIConfig
	config.CacheConfig
}

func NewService(api *API, cache *querycache.Cache, us UserSource, cfg ServiceConfig, logger zerolog.Logger) *Service {
	limit := cfg.GetDefaultPageLimit()
	if limit < 1 {
		limit = DefaultPageLimit
	}
	return &Service{
		api:                 api,
		cache:               cache,
		users:               us,
		limit:               limit,
		staleTime:           cfg.GetStaleTime(),
		categoriesStaleTime: cfg.GetCategoriesStaleTime(),
		logger:              logger.With().Str("component", "catalog").Logger(),
	}
}

func (s *Service) PageLimit() int {
	return s.limit
}

func pageKey(limit, page int) string {
	return querycache.Key(productsKey, "infinite", limit, page)
}

func categoryKey(slug string) string {
	return querycache.Key(productsKey, "category", slug)
}

// Products returns one page of the product listing.
func (s *Service) Products(ctx context.Context, page int) (*ProductsPage, querycache.Meta, error) {
	if page < 1 {
		page = 1
	}
	return querycache.Fetch(ctx, s.cache, pageKey(s.limit, page), s.staleTime, func(ctx context.Context) (*ProductsPage, error) {
		return s.api.Products(ctx, page, s.limit)
	})
}

// Pages loads pages from the first until NextPage reports the end or max
// pages have been loaded. A max of zero loads everything.
func (s *Service) Pages(ctx context.Context, maxPages int) ([]ProductsPage, error) {
	var pages []ProductsPage
	for {
		next, ok := NextPage(pages)
		if !ok || (maxPages > 0 && len(pages) >= maxPages) {
			return pages, nil
		}
		p, _, err := s.Products(ctx, next)
		if err != nil {
			return pages, err
		}
		if len(p.Products) == 0 {
			return append(pages, *p), nil
		}
		pages = append(pages, *p)
	}
}

func (s *Service) ProductsByCategory(ctx context.Context, slug string) (*ProductsPage, querycache.Meta, error) {
	return querycache.Fetch(ctx, s.cache, categoryKey(slug), s.staleTime, func(ctx context.Context) (*ProductsPage, error) {
		return s.api.ProductsByCategory(ctx, slug)
	})
}

func (s *Service) Categories(ctx context.Context) ([]Category, querycache.Meta, error) {
	return querycache.Fetch(ctx, s.cache, categoriesKey, s.categoriesStaleTime, s.api.Categories)
}

// DeleteProduct removes the product from every cached listing, then asks the
// API to delete it. The cached listings are rolled back if the API call fails
// and refetched on the next read if it succeeds.
func (s *Service) DeleteProduct(ctx context.Context, id int) (*Product, error) {
	if !s.users.User().IsSuperAdmin() {
		return nil, errors.ErrForbidden
	}
	if err := s.cache.RequireOnline(); err != nil {
		return nil, errors.Wrapf(err, "[catalog DeleteProduct] cannot delete product %d", id)
	}

	var snapshots []querycache.Snapshot
	for _, key := range s.cache.Keys(productsKey) {
		snap, err := querycache.SetData(ctx, s.cache, key, func(p *ProductsPage) *ProductsPage {
			if p == nil {
				return nil
			}
			updated := p.Without(id)
			return &updated
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("optimistic update skipped")
			continue
		}
		snapshots = append(snapshots, snap)
	}

	deleted, err := s.api.DeleteProduct(ctx, id)
	if err != nil {
		if rbErr := s.cache.Restore(ctx, snapshots...); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to persist rollback")
		}
		s.logger.Warn().Err(err).Int("productId", id).Msg("delete failed, rolled back")
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, productsKey); err != nil {
		s.logger.Error().Err(err).Msg("failed to invalidate products")
	}
	s.logger.Info().Int("productId", id).Msg("product deleted")
	return deleted, nil
}

// Refresh invalidates every cached read.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, productsKey); err != nil {
		return fmt.Errorf("[catalog Refresh] %w", err)
	}
	return s.cache.Invalidate(ctx, categoriesKey)
}
