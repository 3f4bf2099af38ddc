// Package main wires together the dupe analysis service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/briannabogos1157/threadtwin/internal/affiliate"
	"github.com/briannabogos1157/threadtwin/internal/api"
	cachememory "github.com/briannabogos1157/threadtwin/internal/cache/memory"
	cacheredis "github.com/briannabogos1157/threadtwin/internal/cache/redis"
	"github.com/briannabogos1157/threadtwin/internal/clock/system"
	"github.com/briannabogos1157/threadtwin/internal/config"
	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/extractor"
	"github.com/briannabogos1157/threadtwin/internal/fetcher"
	"github.com/briannabogos1157/threadtwin/internal/fetcher/headless"
	"github.com/briannabogos1157/threadtwin/internal/fetcher/static"
	"github.com/briannabogos1157/threadtwin/internal/logging"
	"github.com/briannabogos1157/threadtwin/internal/metrics"
	"github.com/briannabogos1157/threadtwin/internal/pipeline"
	"github.com/briannabogos1157/threadtwin/internal/search"
	storagememory "github.com/briannabogos1157/threadtwin/internal/storage/memory"
	storagepostgres "github.com/briannabogos1157/threadtwin/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	staticFetcher := static.New(static.Config{
		UserAgent: cfg.Fetcher.UserAgent,
		Timeout:   time.Duration(cfg.Fetcher.PageTimeoutSeconds) * time.Second,
	})

	var headlessFetcher dupe.Strategy
	if cfg.Headless.Enabled {
		hf, err := headless.New(headless.Config{
			MaxParallel:        cfg.Headless.MaxParallel,
			UserAgent:          cfg.Fetcher.UserAgent,
			NavigationTimeout:  time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			BlockResourceTypes: cfg.Headless.BlockResourceTypes,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			headlessFetcher = hf
			defer hf.Close()
		}
	}

	detector := fetcher.NewDetector(
		cfg.Headless.MinHTMLBytes,
		extractor.NameSelectors(),
		cfg.Headless.DetectorKeywords,
	)

	client, err := fetcher.New(fetcher.Config{
		Mode:        cfg.Fetcher.Mode,
		MaxRetries:  cfg.Fetcher.MaxRetries,
		RetryDelay:  time.Duration(cfg.Fetcher.RetryDelaySeconds) * time.Second,
		PageTimeout: time.Duration(cfg.Fetcher.PageTimeoutSeconds) * time.Second,
	}, staticFetcher, headlessFetcher, detector, logger.Named("fetcher"))
	if err != nil {
		logger.Fatal("fetcher init failed", zap.Error(err))
	}

	var cache dupe.Cache
	switch cfg.Cache.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		cache = cacheredis.New(rdb, "", cfg.CacheTTL())
		logger.Info("using redis result cache", zap.String("addr", cfg.Redis.Addr))
	default:
		cache = cachememory.New(cfg.CacheTTL(), clock)
	}

	var (
		products    dupe.ProductStore
		submissions dupe.SubmissionStore
	)
	if cfg.DB.DSN != "" {
		pgProducts, err := storagepostgres.NewProductStore(ctx, storagepostgres.Config{
			DSN:           cfg.DB.DSN,
			ProductsTable: cfg.DB.ProductsTable,
			MaxConns:      int32(cfg.DB.MaxConns),
			MinConns:      int32(cfg.DB.MinConns),
		})
		if err != nil {
			logger.Fatal("postgres product store init failed", zap.Error(err))
		}
		defer pgProducts.Close()

		pgSubmissions, err := storagepostgres.NewSubmissionStore(ctx, storagepostgres.Config{
			DSN:              cfg.DB.DSN,
			SubmissionsTable: cfg.DB.SubmissionsTable,
			MaxConns:         int32(cfg.DB.MaxConns),
			MinConns:         int32(cfg.DB.MinConns),
		})
		if err != nil {
			logger.Fatal("postgres submission store init failed", zap.Error(err))
		}
		defer pgSubmissions.Close()

		products = pgProducts
		submissions = pgSubmissions
		logger.Info("using postgres stores")
	} else {
		products = storagememory.NewProductStore()
		submissions = storagememory.NewSubmissionStore()
	}

	pipe, err := pipeline.New(pipeline.Config{
		OverallTimeout: cfg.OverallTimeout(),
		CacheTTL:       cfg.CacheTTL(),
	}, client, cache, products, logger.Named("pipeline"))
	if err != nil {
		logger.Fatal("pipeline init failed", zap.Error(err))
	}

	var affiliateClient *affiliate.Client
	affCfg := affiliate.Config{
		ClientID:     cfg.Affiliate.ClientID,
		ClientSecret: cfg.Affiliate.ClientSecret,
		PublisherID:  cfg.Affiliate.PublisherID,
	}
	if affCfg.Enabled() {
		affiliateClient = affiliate.New(affCfg, logger.Named("affiliate"))
	}

	var searchClient *search.Client
	searchCfg := search.Config{APIKey: cfg.Search.APIKey}
	if searchCfg.Enabled() {
		searchClient = search.New(searchCfg, logger.Named("search"))
	}

	apiServer := api.NewServer(pipe, products, submissions, affiliateClient, searchClient,
		clock, logger.Named("api"), cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
