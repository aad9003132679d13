// Package worker is the execution plane: it watches the exchange queues the
// control plane writes into, runs browser and document jobs, and deposits
// their results.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/events"
	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/internal/ocr"
)

// This variable is set during build time.
// It contains the version of the code.
var version string

type Worker struct {
	config   *Config
	drivers  DriverFactory
	analyzer ocr.Analyzer
	logger   *zap.SugaredLogger
}

// New creates a worker serving both exchange queues. Either capability may
// be nil; jobs needing it then fail with a deposited result instead of
// waiting forever.
func New(config *Config, drivers DriverFactory, analyzer ocr.Analyzer) *Worker {
	return &Worker{
		config:   config,
		drivers:  drivers,
		analyzer: analyzer,
		logger:   zap.S().Named("worker"),
	}
}

// Run blocks until a termination signal arrives or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infof("starting worker: %s", version)
	defer w.logger.Info("worker stopped")
	w.logger.Infof("configuration: %s", w.config.String())

	portalQueue, err := exchange.NewQueue(w.config.PortalExchangeDir)
	if err != nil {
		return fmt.Errorf("opening portal exchange: %w", err)
	}
	documentQueue, err := exchange.NewQueue(w.config.DocumentExchangeDir)
	if err != nil {
		return fmt.Errorf("opening document exchange: %w", err)
	}

	// step progress crosses the plane boundary the same way jobs do:
	// spooled beside the portal exchange, drained by the control plane
	spool, err := events.NewSpool(filepath.Join(w.config.PortalExchangeDir, "events"))
	if err != nil {
		return fmt.Errorf("opening event spool: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchers := []*Watcher{
		NewWatcher(portalQueue, NewDispatcher(portalQueue, w.drivers, w.analyzer, spool), w.config.PollInterval.Duration),
		NewWatcher(documentQueue, NewDispatcher(documentQueue, w.drivers, w.analyzer, spool), w.config.PollInterval.Duration),
	}

	var wg sync.WaitGroup
	for _, watcher := range watchers {
		wg.Add(1)
		go func(watcher *Watcher) {
			defer wg.Done()
			watcher.Run(ctx)
		}(watcher)
	}

	select {
	case <-sig:
		w.logger.Info("stopping worker...")
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	return nil
}
