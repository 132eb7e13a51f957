package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/dayoung-ko/finsync/internal/pkg/model"
	"github.com/dayoung-ko/finsync/internal/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the persistence boundary the sync pass writes through. Writes are
// individually idempotent: re-running a pass against unchanged upstream data
// must add zero rows.
type Store interface {
	UpsertProduct(ctx context.Context, p model.Product) error
	OptionExists(ctx context.Context, key model.OptionKey) (bool, error)
	InsertOptionIfAbsent(ctx context.Context, o model.Option) (inserted bool, err error)
	GetProduct(ctx context.Context, key model.ProductKey) (model.Product, error)
	ListOptions(ctx context.Context, key model.ProductKey) ([]model.Option, error)
}

// DisclosureClient fetches all pages of one disclosure category, all-or-nothing.
type DisclosureClient interface {
	FetchCategory(ctx context.Context, category string) ([]model.Product, []model.Option, error)
}

// Summary reports the outcome of one sync pass across all configured categories.
type Summary struct {
	ProductsUpserted int
	OptionsInserted  int
	OptionsSkipped   int
	Anomalies        int
	FailedCategories []string
}

func (s Summary) Failed() bool { return len(s.FailedCategories) > 0 }

// Service runs the fetch → parse → dedup/upsert pipeline for the configured
// disclosure categories and serves the downstream per-product rate reads.
type Service struct {
	store      Store
	client     DisclosureClient
	categories []string
	logger     *zap.Logger
}

func NewService(store Store, client DisclosureClient, categories []string, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		client:     client,
		categories: categories,
		logger:     logger,
	}
}

// Sync performs one full synchronization pass. Categories are independent: a
// failing category is recorded in the summary and the remaining categories
// still run. Failures are reported through the summary, never by panicking.
func (s *Service) Sync(ctx context.Context) Summary {
	var sum Summary
	for _, category := range s.categories {
		if err := s.syncCategory(ctx, category, &sum); err != nil {
			s.logger.Error("category sync failed", zap.String("category", category), zap.Error(err))
			sum.FailedCategories = append(sum.FailedCategories, category)
		}
	}

	s.logger.Info("sync pass finished",
		zap.Int("productsUpserted", sum.ProductsUpserted),
		zap.Int("optionsInserted", sum.OptionsInserted),
		zap.Int("optionsSkipped", sum.OptionsSkipped),
		zap.Int("anomalies", sum.Anomalies),
		zap.Strings("failedCategories", sum.FailedCategories))
	return sum
}

func (s *Service) syncCategory(ctx context.Context, category string, sum *Summary) error {
	products, options, err := s.client.FetchCategory(ctx, category)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	seen := make(map[model.ProductKey]struct{}, len(products))
	for _, p := range products {
		if err := s.store.UpsertProduct(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s/%s: %w", p.InstitutionCode, p.ProductCode, err)
		}
		seen[p.Key()] = struct{}{}
		sum.ProductsUpserted++
	}

	for _, o := range options {
		key := o.Key()
		if _, ok := seen[model.ProductKey{Institution: key.Institution, Product: key.Product}]; !ok {
			// option references a product absent from this run's product list
			s.logger.Warn("skipping orphan option",
				zap.String("institution", string(key.Institution)),
				zap.String("product", string(key.Product)),
				zap.String("rateType", string(key.RateType)))
			sum.Anomalies++
			continue
		}

		inserted, err := s.store.InsertOptionIfAbsent(ctx, o)
		if errors.Is(err, store.ErrProductNotFound) {
			s.logger.Warn("parent product missing at insert time",
				zap.String("institution", string(key.Institution)),
				zap.String("product", string(key.Product)),
				zap.String("rateType", string(key.RateType)))
			sum.Anomalies++
			continue
		}
		if err != nil {
			return fmt.Errorf("insert option %s/%s/%s: %w", key.Institution, key.Product, key.RateType, err)
		}
		if inserted {
			sum.OptionsInserted++
		} else {
			sum.OptionsSkipped++
			s.logger.Debug("option already stored, skipping",
				zap.String("institution", string(key.Institution)),
				zap.String("product", string(key.Product)),
				zap.String("rateType", string(key.RateType)))
		}
	}
	return nil
}

// ProductRates is the downstream read contract: the stored descriptor plus the
// final per-grade rate table computed from the product's current option rows.
func (s *Service) ProductRates(ctx context.Context, key model.ProductKey) (model.Product, map[model.GradeBucket]decimal.Decimal, error) {
	p, err := s.store.GetProduct(ctx, key)
	if err != nil {
		return model.Product{}, nil, err
	}
	options, err := s.store.ListOptions(ctx, key)
	if err != nil {
		return model.Product{}, nil, fmt.Errorf("list options for %s/%s: %w", key.Institution, key.Product, err)
	}
	return p, model.FinalRates(options), nil
}
