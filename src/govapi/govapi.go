package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vortex-market/vortex-dao/src/data"
	"github.com/vortex-market/vortex-dao/src/gov/capability"
	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/execution"
	"github.com/vortex-market/vortex-dao/src/gov/mirror"
	"github.com/vortex-market/vortex-dao/src/gov/store"
	"github.com/vortex-market/vortex-dao/src/govapi/config"
	"github.com/vortex-market/vortex-dao/src/govapi/webserver"
)

func main() {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "vortexdao:vortexdao@tcp(127.0.0.1:3306)/vortexdao"
	}
	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cfg := config.Load(db)
	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())

	// Pick the mirror target; local state never depends on it.
	var target mirror.Mirror = mirror.Noop{}
	switch {
	case cfg.MirrorRPCURL != "":
		target = mirror.NewChainRPC(cfg.MirrorRPCURL)
		log.Printf("Mirroring governance events to %s", cfg.MirrorRPCURL)
	case cfg.MirrorToRedis:
		target = mirror.NewRedis(rdb)
		log.Printf("Mirroring governance events to redis stream")
	}
	publisher := mirror.NewPublisher(target, cfg.MirrorQueueSize)
	go publisher.Run(ctx)

	dispatcher := execution.NewDispatcher(execution.NewDBSink(db, rdb), execution.NewRegistry())

	eng := engine.New(
		cfg.Engine(),
		store.NewMySQL(db),
		capability.NewDB(db),
		dispatcher,
		publisher,
	)

	// Periodic finalization scan; the /v1/finalize route triggers the same
	// operation on demand.
	go func() {
		interval := time.Duration(cfg.FinalizeInterval) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				results, err := eng.ScanAndFinalize(ctx, now)
				if err != nil {
					log.Printf("Finalization scan failed: %v", err)
					continue
				}
				for _, r := range results {
					log.Printf("Proposal %d finalized: %s (%s)", r.ProposalID, r.Status, r.Reason)
				}
			}
		}
	}()

	router := webserver.New(cfg, eng, db, rdb)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting governance API on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("Shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	publisher.Wait()
}
