package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"catchup-feed/internal/adapter/rss"
	"catchup-feed/internal/common/pagination"
	"catchup-feed/internal/config"
	"catchup-feed/internal/dismissed"
	"catchup-feed/internal/domain/entity"
	hhttp "catchup-feed/internal/handler/http"
	"catchup-feed/internal/handler/http/middleware"
	"catchup-feed/internal/handler/http/requestid"
	"catchup-feed/internal/infra/worker"
	"catchup-feed/internal/observability/slo"
	"catchup-feed/internal/observability/tracing"
	"catchup-feed/internal/orchestrator"
	pkgconfig "catchup-feed/internal/pkg/config"
	"catchup-feed/internal/pool"
	"catchup-feed/internal/resolver"
	"catchup-feed/pkg/ratelimit"
)

func main() {
	logger := initLogger()
	serverCfg := pkgconfig.LoadServerConfigFromEnv()
	if serverCfg.FallbackApplied {
		logger.Warn("one or more feed server settings fell back to their default")
	}

	reaperMetrics := worker.NewReaperMetrics()
	reaperCfg, _ := worker.LoadReaperConfigFromEnv(logger, reaperMetrics)
	logger.Info("idle-session reaper schedule",
		slog.String("cron", reaperCfg.CronSchedule),
		slog.String("timezone", reaperCfg.Timezone),
		slog.Duration("sweep_interval", reaperCfg.SweepInterval))

	dataDir := getDataDir()
	app := buildApp(logger, serverCfg, dataDir, reaperCfg.SweepInterval)

	reaperHealth := worker.NewHealthServer(fmt.Sprintf(":%d", reaperCfg.HealthPort), logger)
	go func() {
		if err := reaperHealth.Start(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("reaper health server failed", slog.Any("error", err))
		}
	}()
	reaperHealth.SetReady(true)

	sloCollector := slo.NewCollector(time.Minute)
	go sloCollector.Run(context.Background())

	version := getVersion()
	handler := setupServer(logger, app)
	runServer(logger, handler, version)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

func getDataDir() string {
	dir := os.Getenv("FEED_DATA_DIR")
	if dir == "" {
		dir = "./data"
	}
	return dir
}

// app holds every long-lived component the HTTP layer needs, plus the
// per-user caches (recipe loaders, dismissed stores) that let a single
// process serve many users without re-reading disk on every request.
type app struct {
	pool         *pool.Manager
	queryLoader  *config.QueryLoader
	orchestrator *orchestrator.Orchestrator

	recipeMu      sync.Mutex
	recipeLoaders map[string]*config.RecipeLoader

	storeMu sync.Mutex
	stores  map[string]*dismissed.Store

	dataDir            string
	dismissedRetention time.Duration
}

func buildApp(logger *slog.Logger, serverCfg pkgconfig.ServerConfig, dataDir string, sweepInterval time.Duration) *app {
	registry := orchestrator.Registry{
		"rss": rss.New(&http.Client{Timeout: serverCfg.DefaultAdapterTimeout}),
	}

	orch := orchestrator.New(registry)
	orch.MaxConcurrency = serverCfg.MaxAdapterConcurrency
	orch.DefaultTimeout = serverCfg.DefaultAdapterTimeout

	a := &app{
		orchestrator:       orch,
		queryLoader:        config.NewQueryLoader(filepath.Join(dataDir, "queries")),
		recipeLoaders:      map[string]*config.RecipeLoader{},
		stores:             map[string]*dismissed.Store{},
		dataDir:            dataDir,
		dismissedRetention: serverCfg.DismissedRetention,
	}

	manager := pool.New(orch, a.dismissedStoreFor, a.configsFor, a.recipeFor)
	manager.SessionTTL = serverCfg.SessionTTL
	manager.DefaultBatchSize = serverCfg.DefaultBatchSize
	a.pool = manager

	go manager.StartReaper(context.Background(), sweepInterval)

	logger.Info("feed server components initialized",
		slog.String("data_dir", dataDir),
		slog.Int("default_batch_size", serverCfg.DefaultBatchSize),
		slog.Duration("session_ttl", serverCfg.SessionTTL),
		slog.Int("max_adapter_concurrency", serverCfg.MaxAdapterConcurrency))

	return a
}

func (a *app) configsFor(userID string) []entity.QueryConfig {
	configs, warnings, err := a.queryLoader.Load()
	if err != nil {
		slog.Error("failed to load query configs", slog.Any("error", err))
		return nil
	}
	for _, w := range warnings {
		slog.Warn("skipped query config file", slog.String("source", w.Source), slog.String("kind", w.Kind), slog.String("message", w.Message))
	}
	loader := a.recipeLoaderFor(userID)
	return loader.FilterEnabledQueries(configs)
}

func (a *app) recipeFor(userID string) entity.ScrollRecipe {
	recipe, err := a.recipeLoaderFor(userID).Load()
	if err != nil {
		slog.Error("failed to load recipe", slog.String("user_id", userID), slog.Any("error", err))
		return entity.DefaultScrollRecipe()
	}
	return recipe
}

func (a *app) recipeLoaderFor(userID string) *config.RecipeLoader {
	a.recipeMu.Lock()
	defer a.recipeMu.Unlock()
	if loader, ok := a.recipeLoaders[userID]; ok {
		return loader
	}
	loader := config.NewRecipeLoader(filepath.Join(a.dataDir, "recipes", userID+".yaml"))
	a.recipeLoaders[userID] = loader
	return loader
}

func (a *app) dismissedStoreFor(userID string) pool.DismissedStore {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if store, ok := a.stores[userID]; ok {
		return store
	}
	store := dismissed.New(filepath.Join(a.dataDir, "dismissed", userID+".json"), a.dismissedRetention)
	a.stores[userID] = store
	return store
}

func (a *app) resolverFor(userID string) hhttp.FilterResolver {
	configs, _, err := a.queryLoader.Load()
	if err != nil {
		slog.Error("failed to load query configs for resolver", slog.Any("error", err))
		configs = nil
	}
	queryNames := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		queryNames[cfg.Name] = true
	}

	sourceTypes := make(map[string]bool, len(a.orchestrator.Registry))
	for sourceType := range a.orchestrator.Registry {
		sourceTypes[sourceType] = true
	}

	recipe := a.recipeFor(userID)
	return resolver.New(sourceTypes, queryNames, recipe.Aliases)
}

func setupServer(logger *slog.Logger, a *app) http.Handler {
	paginationCfg := pagination.LoadFromEnv()

	mux := http.NewServeMux()
	mux.Handle("GET /health", &hhttp.HealthHandler{StoreDir: filepath.Join(a.dataDir, "dismissed"), Version: getVersion()})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{StoreDir: filepath.Join(a.dataDir, "dismissed")})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	mux.Handle("GET /feed/sessions/{id}/scroll", &hhttp.ScrollHandler{
		Pool:          a.pool,
		ResolverFor:   a.resolverFor,
		PaginationCfg: paginationCfg,
	})
	mux.Handle("POST /feed/sessions/{id}/dismiss", &hhttp.DismissHandler{Pool: a.pool})
	mux.Handle("GET /feed/recipes/{id}", &hhttp.RecipeHandler{RecipeFor: a.recipeFor})
	mux.Handle("GET /feed/recipes/{id}/queries", &hhttp.QueriesHandler{ConfigsFor: a.configsFor})

	return applyMiddleware(logger, mux)
}

// ipExtractor returns a proxy-aware IP extractor when RATE_LIMIT_TRUST_PROXY
// is configured, falling back to the raw RemoteAddr otherwise. A
// misconfigured trust setting (enabled with no trusted CIDRs) is logged and
// degrades to RemoteAddr rather than failing server startup.
func ipExtractor(logger *slog.Logger) middleware.IPExtractor {
	proxyCfg, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Warn("invalid trusted proxy configuration, falling back to direct remote address", slog.Any("error", err))
		return &middleware.RemoteAddrExtractor{}
	}
	if !proxyCfg.Enabled {
		return &middleware.RemoteAddrExtractor{}
	}
	return middleware.NewTrustedProxyExtractor(*proxyCfg)
}

func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	ipConfig := middleware.DefaultIPRateLimiterConfig()
	ipStore := ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig())
	breaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{})
	ipLimiter := middleware.NewIPRateLimiter(
		ipConfig,
		ipExtractor(logger),
		ipStore,
		ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{}),
		ratelimit.NewPrometheusMetrics(),
		breaker,
	)

	degradation := middleware.NewDegradationManager(middleware.DefaultDegradationConfig())
	ipLimiter.Degradation = degradation
	go watchBreakerDegradation(logger, breaker, degradation)

	userStore := ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig())
	userLimiter := middleware.NewUserRateLimiter(middleware.UserRateLimiterConfig{
		Store:          userStore,
		Algorithm:      ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{}),
		Metrics:        ratelimit.NewPrometheusMetrics(),
		CircuitBreaker: breaker,
		UserExtractor:  middleware.NewHeaderUserExtractor(nil),
		TierLimits:     middleware.NewDefaultTierLimits(),
	})

	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()
	cleanupCtx := context.Background()
	go hhttp.StartRateLimitCleanup(cleanupCtx, ipStore, cleanupCfg.Interval, ipConfig.Window, "ip")
	go hhttp.StartRateLimitCleanup(cleanupCtx, userStore, cleanupCfg.Interval, 1*time.Hour, "user")

	const maxRequestBodyBytes = 1 << 20 // 1 MiB

	middlewareChain := handler
	middlewareChain = hhttp.MetricsMiddleware(middlewareChain)
	middlewareChain = hhttp.InputValidation()(middlewareChain)
	middlewareChain = hhttp.LimitRequestBody(maxRequestBodyBytes)(middlewareChain)
	middlewareChain = userLimiter.Middleware()(middlewareChain)
	middlewareChain = middleware.HeaderUserMiddleware(middlewareChain)
	middlewareChain = ipLimiter.Middleware()(middlewareChain)
	middlewareChain = hhttp.Logging(logger)(middlewareChain)
	middlewareChain = hhttp.Recover(logger)(middlewareChain)
	middlewareChain = tracing.Middleware(middlewareChain)
	middlewareChain = requestid.Middleware(middlewareChain)

	return middlewareChain
}

// watchBreakerDegradation polls the rate limiter's circuit breaker and feeds
// its open/closed transitions into a DegradationManager, so a struggling
// backend relaxes rate limits instead of piling a 429 storm on top of
// whatever is already failing.
func watchBreakerDegradation(logger *slog.Logger, breaker *ratelimit.CircuitBreaker, degradation *middleware.DegradationManager) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	wasOpen := false
	for range ticker.C {
		open := breaker.IsOpen()
		if open == wasOpen {
			continue
		}
		wasOpen = open
		if open {
			degradation.OnCircuitOpen()
		} else {
			degradation.OnCircuitClose()
		}
		logger.Info("rate limiter degradation level changed",
			slog.Bool("breaker_open", open),
			slog.String("level", degradation.GetLevel().String()))
	}
}

func runServer(logger *slog.Logger, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := os.Getenv("FEED_SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
