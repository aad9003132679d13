package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apiserver "github.com/sertech/docflow/internal/api_server"
	"github.com/sertech/docflow/internal/batch"
	"github.com/sertech/docflow/internal/bridge"
	"github.com/sertech/docflow/internal/config"
	"github.com/sertech/docflow/internal/events"
	"github.com/sertech/docflow/internal/exchange"
	handlers "github.com/sertech/docflow/internal/handlers/v1alpha1"
	"github.com/sertech/docflow/internal/scheduler"
	"github.com/sertech/docflow/internal/service"
	"github.com/sertech/docflow/internal/store"
	"github.com/sertech/docflow/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the docflow api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if err := st.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		portalQueue, err := exchange.NewQueue(cfg.Exchange.PortalRoot)
		if err != nil {
			zap.S().Fatalw("opening portal exchange", "error", err)
		}
		documentQueue, err := exchange.NewQueue(cfg.Exchange.DocumentRoot)
		if err != nil {
			zap.S().Fatalw("opening document exchange", "error", err)
		}

		waitTimeout := time.Duration(cfg.Exchange.WaitTimeout) * time.Second
		pollInterval := time.Duration(cfg.Exchange.PollInterval) * time.Millisecond
		portalBridge := bridge.New(portalQueue, bridge.WithWaitTimeout(waitTimeout), bridge.WithPollInterval(pollInterval))
		documentBridge := bridge.New(documentQueue, bridge.WithWaitTimeout(waitTimeout), bridge.WithPollInterval(pollInterval))

		hub := events.NewHub()
		producer := events.NewProducer(&events.StdoutWriter{})
		producer.Attach(hub, "event_producer")
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Errorw("closing event producer", "error", err)
			}
		}()

		executionSrv := service.NewExecutionService(st, portalBridge)
		documentSrv := service.NewDocumentService(documentBridge)
		batchExecutor := batch.NewExecutor(documentSrv, hub)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		// the worker spools automation progress beside the portal exchange;
		// relay it into the hub so SSE observers see the other plane
		spool, err := events.NewSpool(filepath.Join(cfg.Exchange.PortalRoot, "events"))
		if err != nil {
			zap.S().Fatalw("opening event spool", "error", err)
		}
		relay := events.NewRelay(spool, hub)
		go relay.Run(ctx)

		engine := scheduler.NewEngine(executionSrv, executionSrv)
		go engine.Run(ctx)

		handler := handlers.NewServiceHandler(
			executionSrv,
			documentSrv,
			batchExecutor,
			st,
			hub,
			int64(cfg.Exchange.BatchConcurrency),
		)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, handler, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
