package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/fitsync/internal/api"
	"example.com/fitsync/internal/auth"
	"example.com/fitsync/internal/bus"
	"example.com/fitsync/internal/config"
	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/gateway"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/progress"
	"example.com/fitsync/internal/remote"
	remotememory "example.com/fitsync/internal/remote/memory"
	remotepostgres "example.com/fitsync/internal/remote/postgres"
	"example.com/fitsync/internal/syncer"
	"example.com/fitsync/internal/tracker"
	httptransport "example.com/fitsync/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer local.Close()

	remoteStore, closeRemote, err := buildRemote(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open remote store: %v", err)
	}
	defer closeRemote()

	events := bus.New()
	gw := gateway.New(local, remoteStore, gateway.WithRemoteTimeout(cfg.RemoteWriteTimeout))
	engine := progress.NewEngine(local, gw, events)
	service := tracker.NewService(local, gw, events, engine)

	workouts := syncer.New(syncer.WorkoutAdapter(local), remoteStore)
	habits := syncer.New(syncer.HabitAdapter(local), remoteStore)
	goals := syncer.New(syncer.GoalAdapter(local), remoteStore,
		syncer.WithHook(func(ctx context.Context, _ string, goals []domain.Goal) []domain.Goal {
			return engine.EvaluateExpiry(ctx, goals)
		}))
	session := syncer.NewSession(events, workouts, habits, goals)

	go engine.Run(ctx)
	go session.Run(ctx)

	if cfg.DeviceUserID != "" {
		events.Publish(bus.AuthChanged{UserID: cfg.DeviceUserID})
	}

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := auth.UserID(r.Context()); userID != "" {
				log.Printf("%s %s (user=%s)", r.Method, r.URL.Path, userID)
			} else {
				log.Printf("%s %s", r.Method, r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fitsync engine listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// Let in-flight remote pushes land before exiting.
	gw.Flush()
}

func buildRemote(ctx context.Context, cfg config.Config) (remote.Store, func(), error) {
	switch cfg.RemoteBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := remotepostgres.NewStore(pool, remotepostgres.WithPollInterval(cfg.RemotePollInterval))
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return remotememory.NewStore(), func() {}, nil
	}
}
