// cmd/meal-ai/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"meal-ai/internal/analyzer"
	"meal-ai/internal/config"
	"meal-ai/internal/lookup"
	"meal-ai/internal/models"
	"meal-ai/internal/provider"
	"meal-ai/internal/router"
	"meal-ai/internal/server"
	"meal-ai/internal/storage"
)

const (
	pruneInterval   = 6 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Printf("meal-ai version %s\n", server.Version)
		return
	}

	config.LoadEnv()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("meal-ai stopped", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer stor.Close()

	settings, err := config.NewStore(ctx,
		config.WithPersister(stor),
		config.WithFallbackKeys(cfg.Keys, cfg.USDAKey),
		config.WithLogger(logger.Named("settings")),
	)
	if err != nil {
		return err
	}

	clients := make([]provider.Client, 0, len(models.Vendors))
	for _, v := range models.Vendors {
		var opts []provider.Option
		if m := cfg.Models[v]; m != "" {
			opts = append(opts, provider.WithModel(m))
		}
		if u := cfg.BaseURLs[v]; u != "" {
			opts = append(opts, provider.WithBaseURL(u))
		}
		c, err := provider.New(v, settings, opts...)
		if err != nil {
			return err
		}
		clients = append(clients, c)
	}

	a := analyzer.New(settings, clients,
		analyzer.WithTimeout(cfg.AnalysisTimeout),
		analyzer.WithLogger(logger.Named("analyzer")),
	)

	lookupLog := logger.Named("lookup")
	sources := map[router.Lookup]lookup.Source{
		router.LookupTable:         lookup.Table{},
		router.LookupUSDA:          lookup.NewCached(lookup.NewUSDA(cfg.USDAURL, settings, nil), stor, cfg.LookupCacheTTL, lookupLog),
		router.LookupOpenFoodFacts: lookup.NewCached(lookup.NewOpenFoodFacts(cfg.OFFURL, cfg.UserAgent, nil), stor, cfg.LookupCacheTTL, lookupLog),
	}

	srv, err := server.NewMealServer(server.Config{
		Addr:           cfg.Addr,
		PublicURL:      cfg.PublicURL,
		AllowedOrigins: cfg.AllowedOrigins,
	}, server.Deps{
		Analyzer: a,
		Searcher: analyzer.NewSearcher(settings, a, sources, lookupLog),
		Meals:    stor,
		Settings: settings,
		Logger:   logger.Named("http"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	g.Go(func() error {
		pruneLookups(gCtx, stor, cfg.LookupCacheTTL, logger)
		return nil
	})
	return g.Wait()
}

// pruneLookups drops expired cache rows until ctx is done.
func pruneLookups(ctx context.Context, stor *storage.SQLiteStorage, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		n, err := stor.PruneLookups(ctx, ttl)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warn("failed to prune lookup cache", zap.Error(err))
		case n > 0:
			logger.Info("pruned lookup cache", zap.Int64("rows", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
