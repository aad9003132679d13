package main

import (
	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/ocr"
	"github.com/sertech/docflow/internal/worker"
)

// The portal driver and the document analyzer are deployment capabilities:
// the browser runner and the visual model live outside this module and are
// linked in by the build that ships them. Without them the worker still
// serves its queues and fails the jobs it cannot execute, so submitters get
// a clean error instead of a timeout.

func newDriverFactory(cfg *worker.Config) worker.DriverFactory {
	zap.S().Named("worker").Warn("no portal driver linked in this build, portal jobs will be rejected")
	return nil
}

func newAnalyzer(cfg *worker.Config) ocr.Analyzer {
	zap.S().Named("worker").Warn("no document analyzer linked in this build, document jobs will be rejected")
	return nil
}
