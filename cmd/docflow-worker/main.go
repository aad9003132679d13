package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sertech/docflow/internal/worker"
	"github.com/sertech/docflow/pkg/log"
)

func main() {
	command := NewWorkerCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

type workerCmd struct {
	config     *worker.Config
	configFile string
}

func NewWorkerCommand() *workerCmd {
	logger := log.InitLog(zap.NewAtomicLevelAt(zapcore.InfoLevel))
	defer func() { _ = logger.Sync() }()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	w := &workerCmd{
		config: worker.NewDefault(),
	}

	flag.StringVar(&w.configFile, "config", worker.DefaultConfigFile, "Path to the worker's configuration file.")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Println("This program starts an execution-plane worker with the specified configuration. Below are the available flags:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if err := w.config.ParseConfigFile(w.configFile); err != nil {
		zap.S().Fatalf("Error parsing config: %v", err)
	}
	if err := w.config.Validate(); err != nil {
		zap.S().Fatalf("Error validating config: %v", err)
	}

	return w
}

func (w *workerCmd) Execute() error {
	logLvl, err := zap.ParseAtomicLevel(w.config.LogLevel)
	if err != nil {
		logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger := log.InitLog(logLvl)
	defer func() { _ = logger.Sync() }()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	// The browser driver and document analyzer are provided by the deployment:
	// this build runs with whatever capabilities are linked in.
	workerInstance := worker.New(w.config, newDriverFactory(w.config), newAnalyzer(w.config))
	if err := workerInstance.Run(context.Background()); err != nil {
		zap.S().Fatalf("running worker: %v", err)
	}
	return nil
}
