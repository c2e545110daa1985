package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"gameforge/internal/dispatch"
	"gameforge/internal/generators"
	"gameforge/internal/governor"
	"gameforge/internal/http/handlers"
	httpapi "gameforge/internal/http"
	"gameforge/internal/infra"
	"gameforge/internal/jobs"
	"gameforge/internal/orchestrator"
	"gameforge/internal/providers"
	"gameforge/internal/providers/assetgen"
	"gameforge/internal/providers/huggingface"
	"gameforge/internal/providers/replicate"
	"gameforge/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional job mirror; the service runs fine without a database.
	var trackerOpts []jobs.Option
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pgStore := jobs.NewPGStore(pool, logger)
		if err := pgStore.EnsureSchema(rootCtx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare jobs table")
		}
		trackerOpts = append(trackerOpts, jobs.WithStore(pgStore))
	}

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	gov := governor.New(governor.Config{
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxConcurrent:     cfg.MaxConcurrent,
		MonthlyBudgetUSD:  cfg.MonthlyBudgetUSD,
	}, logger)
	go gov.Run(rootCtx)

	// Adapters with missing credentials are skipped, not fatal: the
	// fallback chains simply get shorter.
	var adapters []providers.Adapter
	var localInference *assetgen.Client
	if hf, err := huggingface.NewClient(huggingface.Options{APIKey: cfg.HuggingFaceAPIKey}); err != nil {
		logger.Warn().Err(err).Msg("huggingface adapter disabled")
	} else {
		adapters = append(adapters, hf)
	}
	if rep, err := replicate.NewClient(replicate.Options{APIToken: cfg.ReplicateAPIToken}); err != nil {
		logger.Warn().Err(err).Msg("replicate adapter disabled")
	} else {
		adapters = append(adapters, rep)
	}
	if cfg.AssetGenEnabled {
		local, err := assetgen.NewClient(assetgen.Options{BaseURL: cfg.AssetGenBaseURL})
		if err != nil {
			logger.Warn().Err(err).Msg("assetgen adapter disabled")
		} else {
			adapters = append(adapters, local)
			localInference = local
		}
	}
	if len(adapters) == 0 {
		logger.Fatal().Msg("no provider adapters configured")
	}

	registry := providers.NewRegistry(adapters...)
	dispatcher := dispatch.New(registry, gov, logger)
	tracker := jobs.NewTracker(jobs.NewLogSink(logger), trackerOpts...)

	storyGen := generators.NewStoryGenerator(dispatcher, cfg.TextProviderOrder, logger)
	visualGen := generators.NewVisualGenerator(dispatcher, cfg.ImageProviderOrder, cfg.MaxAssetsPerBatch, logger)
	audioGen := generators.NewAudioGenerator(dispatcher, cfg.AudioProviderOrder, cfg.MaxAssetsPerBatch, logger)
	codeGen := generators.NewCodeGenerator(dispatcher, cfg.TextProviderOrder, logger)
	composer := orchestrator.New(storyGen, visualGen, audioGen, logger)

	app := &handlers.App{
		Logger:         logger,
		Governor:       gov,
		Tracker:        tracker,
		Story:          storyGen,
		Visual:         visualGen,
		Audio:          audioGen,
		Code:           codeGen,
		Orchestrator:   composer,
		Store:          store,
		ImageOrder:     cfg.ImageProviderOrder,
		MaxBatch:       cfg.MaxAssetsPerBatch,
		ProgressConfig: jobs.DefaultProgressConfig,
		BackgroundCtx:  rootCtx,
	}
	if localInference != nil {
		app.LocalInference = localInference
	}

	router := httpapi.NewRouter(app, httpapi.RouterConfig{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
		StaticDir:       cfg.StoragePath,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
