package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"

	"example.com/fitsync/internal/bus"
	"example.com/fitsync/internal/config"
	"example.com/fitsync/internal/gateway"
	"example.com/fitsync/internal/ingress"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/progress"
	"example.com/fitsync/internal/remote"
	remotememory "example.com/fitsync/internal/remote/memory"
	remotepostgres "example.com/fitsync/internal/remote/postgres"
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
	handler := ingress.NewTrackerHandler(service)

	go engine.Run(ctx)

	metricsSrv := httptransport.NewMetricsServer(cfg.MetricsAddress)

	go func() {
		log.Printf("ingress metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.KafkaGroupID,
		Topic:           cfg.KafkaTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := ingress.NewProcessor(reader, handler)

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Printf("ingress started (topic=%s, group=%s)", cfg.KafkaTopic, cfg.KafkaGroupID)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("ingress stopped with error: %v", err)
		}
	}()

	<-stop
	log.Println("ingress shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
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
