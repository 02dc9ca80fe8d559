package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/actuallystonmai/beautybot/internal/metrics"
	"github.com/actuallystonmai/beautybot/internal/model"
)

// FallbackRecommendation replaces the narrative when the model cannot be reached.
const FallbackRecommendation = "Sorry, there was an error generating recommendations. Please try again later."

// Catalog is where categories and their products come from: the Postgres
// repository or the scraper.
type Catalog interface {
	Categories(ctx context.Context) ([]string, error)
	Products(ctx context.Context, category string) ([]domain.Product, error)
}

type Cache interface {
	Get(ctx context.Context, category string) (*domain.Recommendation, bool, error)
	Set(ctx context.Context, category string, rec *domain.Recommendation) error
}

type Generator interface {
	Generate(ctx context.Context, category string, ranked []model.ScoredProduct) (string, error)
}

type Service struct {
	catalog   Catalog
	cache     Cache
	ranker    *model.Client
	generator Generator
}

func NewService(catalog Catalog, cache Cache, ranker *model.Client, generator Generator) *Service {
	return &Service{
		catalog:   catalog,
		cache:     cache,
		ranker:    ranker,
		generator: generator,
	}
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *Service) Recommend(ctx context.Context, category string) (*domain.RecommendationResult, error) {
	log := logging.With().Str("component", "service").Str("category", category).Logger()

	// Check cache
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, category)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			log.Warn().Err(err).Msg("cache get failed")
		case found:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &domain.RecommendationResult{Recommendation: *cached, CacheHit: true}, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	products, err := s.catalog.Products(ctx, category)
	if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	// Unknown or empty category: answer, but don't cache
	if len(products) == 0 {
		log.Warn().Msg("no products found")
		return &domain.RecommendationResult{
			Recommendation: domain.Recommendation{
				TopProducts:       []domain.Product{},
				GPTRecommendation: domain.NoProductsMessage(category),
			},
		}, nil
	}

	ranked := s.ranker.Rank(products)
	log.Info().Int("count", len(ranked)).Msg("ranked top products")

	text, err := s.generator.Generate(ctx, category, ranked)
	if err != nil {
		metrics.LLMFailures.Inc()
		log.Error().Err(err).Msg("generate recommendation")
		text = FallbackRecommendation
	}

	rec := domain.Recommendation{
		TopProducts:       model.Products(ranked),
		GPTRecommendation: text,
	}

	// Store in cache, the fallback text is not worth keeping
	if s.cache != nil && err == nil {
		if cacheErr := s.cache.Set(ctx, category, &rec); cacheErr != nil {
			log.Warn().Err(cacheErr).Msg("cache set failed")
		}
	}

	return &domain.RecommendationResult{Recommendation: rec}, nil
}
