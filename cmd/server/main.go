package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actuallystonmai/beautybot/internal/cache"
	"github.com/actuallystonmai/beautybot/internal/config"
	"github.com/actuallystonmai/beautybot/internal/handler"
	"github.com/actuallystonmai/beautybot/internal/llm"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/actuallystonmai/beautybot/internal/model"
	"github.com/actuallystonmai/beautybot/internal/repository"
	"github.com/actuallystonmai/beautybot/internal/router"
	"github.com/actuallystonmai/beautybot/internal/scraper"
	"github.com/actuallystonmai/beautybot/internal/service"
	"github.com/actuallystonmai/beautybot/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	recCache := cache.NewCache(redisClient, cfg.CacheTTL)
	if err := recCache.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("redis unreachable, recommendations will not be cached")
	} else {
		logging.Info().Msg("connected to Redis")
	}

	// ------------ Catalog ---------------
	var catalog service.Catalog
	switch cfg.Catalog.Source {
	case config.SourceScrape:
		s, err := scraper.New(cfg.Catalog.ScrapeURL, cfg.Catalog.ScrapeDelay)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create scraper")
		}
		catalog = s
		logging.Info().Str("url", cfg.Catalog.ScrapeURL).Msg("serving products scraped live")

	default:
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open database")
		}
		defer pool.Close()

		// for migrate-down using CLI command
		if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
			if err := migrate(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
				logging.Fatal().Err(err).Msg("failed to migrate down")
			}
			logging.Info().Msg("migrations dropped")
			return
		}

		if err := migrate(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate up")
		}

		repo := repository.NewRepository(pool)
		if err := checkSeed(ctx, repo, pool, recCache); err != nil {
			logging.Fatal().Err(err).Msg("failed to check seed")
		}
		catalog = repo
	}

	// ------------ Model ---------------
	generator := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if !generator.Configured() {
		logging.Warn().Msg("OPENAI_API_KEY is not set, recommendations will use the fallback text")
	}

	svc := service.NewService(catalog, recCache, model.NewClient(model.DefaultTopN), generator)
	h := handler.NewHandler(svc)

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(h, router.Options{RateLimit: cfg.RateLimit}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := waitForDB(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logging.Info().Msg("connected to PostgreSQL")
	return pool, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrate(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	logging.Info().Str("file", path).Msg("migration applied")
	return nil
}

func checkSeed(ctx context.Context, repo *repository.Repository, pool *pgxpool.Pool, recCache *cache.Cache) error {
	count, err := repo.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("check categories count: %w", err)
	}
	if count > 0 {
		logging.Info().Int("categories", count).Msg("catalog already seeded, skipping")
		return nil
	}

	if err := seeds.Setup(ctx, pool); err != nil {
		return err
	}
	// recommendations cached against a previous catalog are now wrong
	if err := recCache.Clear(ctx); err != nil {
		logging.Warn().Err(err).Msg("failed to clear recommendation cache")
	}
	return nil
}
