// Command ayaflowd is the composition root: it wires configuration, the
// eBPF classifier, the live-flow table, durable storage, the ingest loop,
// housekeeping, and the read API into one running process.
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

	"github.com/DavidHavoc/ayaFlow/internal/api"
	"github.com/DavidHavoc/ayaFlow/internal/classifier"
	"github.com/DavidHavoc/ayaFlow/internal/config"
	"github.com/DavidHavoc/ayaFlow/internal/enrich"
	"github.com/DavidHavoc/ayaFlow/internal/flow"
	"github.com/DavidHavoc/ayaFlow/internal/housekeeping"
	"github.com/DavidHavoc/ayaFlow/internal/ingest"
	"github.com/DavidHavoc/ayaFlow/internal/logging"
	"github.com/DavidHavoc/ayaFlow/internal/netif"
	"github.com/DavidHavoc/ayaFlow/internal/state"
	"github.com/DavidHavoc/ayaFlow/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	dnsCacheTTL     = 10 * time.Minute
	dnsLookupBudget = 2 * time.Second
	writerQueueSize = 10000
)

func main() {
	cmd := config.BuildCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log := logrus.NewEntry(logging.New(cfg.Quiet))

	ifaceName := cfg.Interface
	if ifaceName == "" {
		if detected := netif.DetectDefault(); detected != "" {
			ifaceName = detected
		} else {
			ifaceName = "eth0"
		}
	}

	att, err := classifier.Attach(ifaceName)
	if err != nil {
		return fmt.Errorf("attaching classifier to %s: %w", ifaceName, err)
	}
	defer att.Close()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", cfg.DBPath, err)
	}
	defer store.Close()

	table := state.New()

	var resolver enrich.Resolver
	if cfg.ResolveDNS {
		resolver = enrich.NewDNSCache(dnsCacheTTL, dnsLookupBudget)
	}

	writerCh := make(chan flow.Metadata, writerQueueSize)
	loop := &ingest.Loop{
		Ring:     att.Ring(),
		State:    table,
		Writer:   writerCh,
		Resolver: resolver,
		Log:      log,
	}

	apiServer, err := api.NewServer(table, store, cfg.AllowedIPs, log)
	if err != nil {
		return fmt.Errorf("building api server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return loop.Run(gctx) })

	g.Go(func() error {
		store.RunWriter(gctx, writerCh, int(cfg.AggregationWindowSeconds), log)
		return nil
	})

	g.Go(func() error {
		housekeeping.RunStaleEviction(gctx, table, time.Duration(cfg.ConnectionTimeoutSeconds)*time.Second, log)
		return nil
	})

	g.Go(func() error {
		if cfg.DataRetentionSeconds == nil {
			<-gctx.Done()
			return nil
		}
		housekeeping.RunRetention(gctx, store, int64(*cfg.DataRetentionSeconds), log)
		return nil
	})

	g.Go(func() error { return serveHTTP(gctx, apiServer, cfg.Port, log) })

	log.WithFields(logrus.Fields{
		"interface": ifaceName,
		"port":      cfg.Port,
		"db_path":   cfg.DBPath,
	}).Info("ayaflowd started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveHTTP runs the read API until ctx is cancelled, then attempts a
// bounded graceful shutdown (spec §4.9: best-effort, not guaranteed).
func serveHTTP(ctx context.Context, apiServer *api.Server, port uint16, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: apiServer.Handler(),
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("api: graceful shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
