package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/automation"
	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/internal/ocr"
)

// DriverFactory opens a browser session for one portal run. The driver is
// torn down by the machine; the factory is invoked once per job.
type DriverFactory func(req *exchange.PortalRunRequest) (automation.Driver, error)

// Dispatcher routes claimed jobs from one exchange queue to the capability
// that executes them: portal runs to the automation machine, document jobs
// to the analyzer.
type Dispatcher struct {
	queue    *exchange.Queue
	drivers  DriverFactory
	analyzer ocr.Analyzer
	emitter  automation.Emitter
	logger   *zap.SugaredLogger
}

func NewDispatcher(queue *exchange.Queue, drivers DriverFactory, analyzer ocr.Analyzer, emitter automation.Emitter) *Dispatcher {
	return &Dispatcher{
		queue:    queue,
		drivers:  drivers,
		analyzer: analyzer,
		emitter:  emitter,
		logger:   zap.S().Named("dispatch"),
	}
}

func (d *Dispatcher) Handle(ctx context.Context, job *exchange.Job) (map[string]interface{}, error) {
	switch job.Action {
	case exchange.ActionPortalRun:
		return d.runPortal(ctx, job)
	case exchange.ActionAnalyzeFirstPage:
		return d.analyzeFirstPage(ctx, job)
	case exchange.ActionValidateRequirements:
		return d.validateRequirements(ctx, job)
	case exchange.ActionAnalyzeContent:
		return d.analyzeContent(ctx, job)
	default:
		return nil, fmt.Errorf("unknown action %q", job.Action)
	}
}

func (d *Dispatcher) runPortal(ctx context.Context, job *exchange.Job) (map[string]interface{}, error) {
	if d.drivers == nil {
		return nil, fmt.Errorf("no browser capability on this worker")
	}

	req := &exchange.PortalRunRequest{}
	if err := json.Unmarshal(job.Payload, req); err != nil {
		return nil, fmt.Errorf("decoding portal run payload: %w", err)
	}

	driver, err := d.drivers(req)
	if err != nil {
		return nil, fmt.Errorf("opening %s session: %w", req.Target, err)
	}

	machine, err := automation.NewPortalMachine(req.Target, driver, automation.WithEmitter(d.emitter))
	if err != nil {
		return nil, err
	}

	result := machine.Run(ctx)
	if !result.Completed() {
		return nil, fmt.Errorf("%s run %s: %s", req.Target, result.Status, result.Message)
	}

	data := map[string]interface{}{
		"portal":   req.Target,
		"attempts": result.Attempts,
	}
	for k, v := range result.Values {
		data[k] = v
	}
	return data, nil
}

func (d *Dispatcher) analyzeFirstPage(ctx context.Context, job *exchange.Job) (map[string]interface{}, error) {
	if d.analyzer == nil {
		return nil, fmt.Errorf("no document analyzer on this worker")
	}

	analysis, err := d.analyzer.AnalyzeFirstPage(ctx, d.queue.ArtifactPath(job.FileName))
	if err != nil {
		return nil, fmt.Errorf("analyzing first page of %s: %w", job.FileName, err)
	}

	orderNumber := ocr.CleanOrderNumber(analysis.OrderNumber)
	classification := ocr.Classify(orderNumber)
	return map[string]interface{}{
		"oc_number":      orderNumber,
		"document_class": classification.Class,
		"denomination":   classification.Denomination,
	}, nil
}

func (d *Dispatcher) validateRequirements(ctx context.Context, job *exchange.Job) (map[string]interface{}, error) {
	if d.analyzer == nil {
		return nil, fmt.Errorf("no document analyzer on this worker")
	}

	validation, err := d.analyzer.ValidateRequirements(ctx, d.queue.ArtifactPath(job.FileName), job.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", job.FileName, err)
	}
	return structToMap(validation)
}

func (d *Dispatcher) analyzeContent(ctx context.Context, job *exchange.Job) (map[string]interface{}, error) {
	if d.analyzer == nil {
		return nil, fmt.Errorf("no document analyzer on this worker")
	}

	content, err := os.ReadFile(d.queue.ArtifactPath(job.FileName))
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", job.FileName, err)
	}

	analysis, err := d.analyzer.AnalyzeContent(ctx, content, job.MimeType, job.Prompt)
	if err != nil {
		return nil, fmt.Errorf("analyzing content of %s: %w", job.FileName, err)
	}
	return map[string]interface{}{"analysis": analysis}, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
