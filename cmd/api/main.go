// Command api runs the CasaLinger session gateway.
//
//	@title						CasaLinger Session Gateway
//	@version					1.0
//	@description				Resolves the auth-provider session into the current actor and gates routes on it.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Supabase access token, as "Bearer <token>".
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

	_ "github.com/casalinger/session-gateway/docs"
	"github.com/casalinger/session-gateway/internal/api"
	"github.com/casalinger/session-gateway/internal/api/handler"
	"github.com/casalinger/session-gateway/internal/core/ports"
	"github.com/casalinger/session-gateway/internal/core/service"
	"github.com/casalinger/session-gateway/internal/infrastructure/db/memory"
	mongostore "github.com/casalinger/session-gateway/internal/infrastructure/db/mongo"
	redisstore "github.com/casalinger/session-gateway/internal/infrastructure/db/redis"
	"github.com/casalinger/session-gateway/internal/infrastructure/profile"
	"github.com/casalinger/session-gateway/internal/infrastructure/provider"
	"github.com/casalinger/session-gateway/internal/infrastructure/queue"
	"github.com/casalinger/session-gateway/internal/pkg/config"
	"github.com/casalinger/session-gateway/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "session-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.MustLoad()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "session-gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	supabase := provider.NewSupabaseProvider(cfg.SupabaseJWTSecret, logger.Component("provider"))
	profiles := profile.NewClient(&http.Client{}, cfg.BackendBaseURL, logger.Component("profile"))
	resolver := service.NewSessionResolver(
		supabase,
		profiles,
		service.NewActorCache(store, logger.Component("cache")),
		service.ResolverOptions{LookupTimeout: cfg.Session.LookupTimeout},
		logger.Component("resolver"),
	)
	guard := service.NewRouteGuard(resolver, service.GuardOptions{
		Timeout:      cfg.Session.GuardTimeout,
		LenientAdmin: cfg.Session.LenientAdmin,
	}, logger.Component("guard"))
	idle := service.NewIdleMonitor(resolver, service.IdleOptions{
		WarnAfter:   cfg.Session.IdleWarning,
		LogoutAfter: cfg.Session.IdleTimeout,
	}, logger.Component("idle"))

	if actor, ok := resolver.Restore(ctx); ok {
		log.Info().Stringer("actor", actor).Msg("restored cached actor hint")
	}

	dispatcher := queue.NewDispatcher(supabase, resolver, logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	go idle.Run(ctx)

	router := api.NewRouter(api.Dependencies{
		Resolver: resolver,
		Guard:    guard,
		Provider: supabase,
		Idle:     idle,
		Ready:    map[string]handler.Pinger{cfg.CacheBackend: store},
		Log:      logger.Component("http"),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Session.GuardTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("cache", cfg.CacheBackend).Msg("session gateway starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down session gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	dispatcher.Wait()

	log.Info().Msg("session gateway stopped gracefully")
	return nil
}

// openStore connects the configured actor cache backend.
func openStore(ctx context.Context, cfg *config.Config) (ports.ActorStore, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		store, closeFn, err := redisstore.OpenActorStore(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
			TTL:      cfg.Session.CacheTTL,
		}, logger.Component("redis"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = closeFn() }, nil
	case config.BackendMongo:
		store, disconnect, err := mongostore.OpenActorStore(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		}, logger.Component("mongo"))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = disconnect(dctx)
		}
		return store, closeFn, nil
	default:
		return memory.NewActorStore(), func() {}, nil
	}
}
