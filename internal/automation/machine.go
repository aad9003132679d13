package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/events"
)

const DefaultMaxAttempts = 3

type RunStatus string

const (
	RunCompleted       RunStatus = "completed"
	RunFailedDefinitive RunStatus = "failed-definitive"
	RunFailedExhausted  RunStatus = "failed-exhausted"
)

// RunResult is the terminal outcome of a machine run.
type RunResult struct {
	Status   RunStatus
	Message  string
	Attempts int
	Values   map[string]interface{}
}

func (r RunResult) Completed() bool {
	return r.Status == RunCompleted
}

// Emitter is the progress side channel. Emission is a side effect independent
// of control flow; it can never fail a step.
type Emitter interface {
	Emit(senderID string, e events.Event)
}

// Machine executes an ordered step sequence against one external target.
// Any retryable failure tears the session down and restarts from step zero
// with fresh context, up to maxAttempts whole-sequence attempts.
type Machine struct {
	target      string
	steps       []Step
	maxAttempts int
	teardown    func(ctx context.Context)
	emitter     Emitter
	logger      *zap.SugaredLogger
}

type MachineOption func(*Machine)

func WithMaxAttempts(n int) MachineOption {
	return func(m *Machine) { m.maxAttempts = n }
}

// WithTeardown registers the session cleanup executed between attempts and
// after the final one.
func WithTeardown(fn func(ctx context.Context)) MachineOption {
	return func(m *Machine) { m.teardown = fn }
}

func WithEmitter(e Emitter) MachineOption {
	return func(m *Machine) { m.emitter = e }
}

func NewMachine(target string, steps []Step, opts ...MachineOption) *Machine {
	m := &Machine{
		target:      target,
		steps:       steps,
		maxAttempts: DefaultMaxAttempts,
		logger:      zap.S().Named("automation").With("target", target),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run drives the sequence to one of the three terminal states.
func (m *Machine) Run(ctx context.Context) RunResult {
	var last StepResult

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if attempt > 1 {
			m.progress(fmt.Sprintf("restarting %s run, attempt %d/%d", m.target, attempt, m.maxAttempts))
		}

		rc := newRunContext(m.target)
		status, res := m.runAttempt(ctx, rc)
		last = res

		switch status {
		case RunCompleted:
			m.teardownSession(ctx)
			return RunResult{Status: RunCompleted, Message: res.Message, Attempts: attempt, Values: rc.Values}
		case RunFailedDefinitive:
			m.teardownSession(ctx)
			return RunResult{Status: RunFailedDefinitive, Message: res.Message, Attempts: attempt, Values: rc.Values}
		default:
			// retryable: tear down any held session and start over
			m.teardownSession(ctx)
		}

		if err := ctx.Err(); err != nil {
			return RunResult{Status: RunFailedDefinitive, Message: err.Error(), Attempts: attempt}
		}
	}

	m.logger.Warnf("run failed after %d attempts: %s", m.maxAttempts, last.Message)
	return RunResult{
		Status:   RunFailedExhausted,
		Message:  fmt.Sprintf("exhausted %d attempts: %s", m.maxAttempts, last.Message),
		Attempts: m.maxAttempts,
	}
}

func (m *Machine) runAttempt(ctx context.Context, rc *RunContext) (RunStatus, StepResult) {
	for _, step := range m.steps {
		if err := ctx.Err(); err != nil {
			return RunFailedDefinitive, BusinessFailure(err.Error())
		}

		res := m.runStep(ctx, step, rc)
		m.progress(res.Message)

		if res.OK {
			rc.merge(res.Values)
			continue
		}
		if res.Retryable {
			m.logger.Warnf("step %q hit a system fault: %s", step.Name, res.Message)
			return RunFailedExhausted, res
		}
		m.logger.Warnf("step %q failed definitively: %s", step.Name, res.Message)
		return RunFailedDefinitive, res
	}
	return RunCompleted, Success(fmt.Sprintf("%s run completed", m.target))
}

// runStep isolates panics inside a step and converts them into system faults.
func (m *Machine) runStep(ctx context.Context, step Step, rc *RunContext) (res StepResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("step %q panicked: %v", step.Name, r)
			res = SystemFailure(fmt.Sprintf("step %s crashed: %v", step.Name, r))
		}
	}()
	return step.Run(ctx, rc)
}

func (m *Machine) teardownSession(ctx context.Context) {
	if m.teardown != nil {
		m.teardown(ctx)
	}
}

func (m *Machine) progress(message string) {
	if message == "" {
		return
	}
	m.logger.Info(message)
	if m.emitter != nil {
		m.emitter.Emit("automation:"+m.target, events.NewProgress(m.target, message))
	}
}
