package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platinummonkey/ssoflow/pkg/authflow"
	"github.com/platinummonkey/ssoflow/pkg/config"
	"github.com/platinummonkey/ssoflow/pkg/lifecycle"
	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
	"github.com/platinummonkey/ssoflow/pkg/tokencache"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	cache, cleanup, err := buildCache(cfg, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to initialize token cache: %v", err)
	}
	defer cleanup()

	webFlow, err := authflow.NewWebFlow(context.Background(), authflow.WebFlowConfig{
		ClientID:     cfg.Flow.ClientID,
		ClientSecret: cfg.Flow.ClientSecret,
		RedirectURL:  cfg.Flow.RedirectURL,
		IssuerURL:    cfg.Flow.IssuerURL,
		AuthURL:      cfg.Flow.AuthURL,
		TokenURL:     cfg.Flow.TokenURL,
		Scopes:       cfg.Flow.Scopes,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize web flow: %v", err)
	}

	// The brokered flow delivers synchronously from inside Session.Open,
	// which already runs on the host's control thread; the web callback
	// arrives on an HTTP goroutine and must be queued.
	var h *host
	flow := authflow.NewBrokered(cache, webFlow, func(correlationCode, resultCode int, payload *session.AuthPayload) {
		h.dispatchAuthResponse(correlationCode, resultCode, payload)
	}, logger)

	factory := func(applicationID string, permissions []string) (lifecycle.Session, error) {
		s, err := session.New(session.Config{
			ApplicationID: applicationID,
			Permissions:   permissions,
			Flow:          flow,
			TokenCache:    cache,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	coord := lifecycle.NewCoordinator(factory,
		lifecycle.WithDefaults(lifecycle.Defaults{
			ApplicationID:   cfg.App.ApplicationID,
			Permissions:     cfg.App.Permissions,
			Behavior:        session.SSOWithFallback,
			CorrelationCode: cfg.App.CorrelationCode,
		}),
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(metrics),
		lifecycle.WithStateChangeHook(func(state session.State, err error) {
			logger.WithField("state", state.String()).WithError(err).Info("session state changed")
		}),
	)

	h = newHost(coord, logger)
	webFlow.OnLaunch = h.setLaunchURL

	router := mux.NewRouter()
	router.HandleFunc("/login", h.handleLogin).Methods("GET")
	router.Handle("/callback", webFlow.CallbackHandler(func(correlationCode, resultCode int, payload *session.AuthPayload) {
		h.deliverAuthResponse(correlationCode, resultCode, payload)
	})).Methods("GET")
	router.HandleFunc("/session", h.handleSession).Methods("GET")
	router.HandleFunc("/logout", h.handleLogout).Methods("POST")
	router.HandleFunc("/logout/purge", h.handlePurge).Methods("POST")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	if cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Starting ssoflow host on %s...", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	h.shutdown()
}

// buildCache constructs the configured token cache backend and returns a
// cleanup function for its resources
func buildCache(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (session.TokenCache, func(), error) {
	var (
		cache   session.TokenCache
		cleanup func()
	)

	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		cache = tokencache.NewRedis(client)
		cleanup = func() { _ = client.Close() }

	case "postgres":
		db, err := sql.Open("postgres", cfg.Cache.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := tokencache.NewSQL(db)
		if err := store.EnsureSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		sweeper, err := store.StartSweeper(cfg.Cache.SweepSchedule, func(err error) {
			logger.WithError(err).Warn("token sweep failed")
		})
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		cache = store
		cleanup = func() {
			sweeper.Stop()
			_ = db.Close()
		}

	default:
		mem, err := tokencache.NewMemory(cfg.Cache.MemorySize)
		if err != nil {
			return nil, nil, err
		}
		cache = mem
		cleanup = func() {}
	}

	if metrics != nil {
		cache = tokencache.NewInstrumented(cache, cfg.Cache.Backend, metrics)
	}
	return cache, cleanup, nil
}
