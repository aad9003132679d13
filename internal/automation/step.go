// Package automation drives multi-step browser runs against one external
// portal, retrying the whole sequence on infrastructure faults and stopping
// immediately on definitive business failures.
package automation

import "context"

// StepResult is the uniform outcome contract returned by every step.
// Retryable marks infrastructure-level faults (network, UI timing) that
// warrant restarting the entire sequence; a non-retryable failure is a
// definitive business outcome such as rejected credentials.
type StepResult struct {
	OK        bool
	Retryable bool
	Message   string
	// Values produced by the step and needed by later ones, merged into the
	// run context on success (e.g. a navigation handle).
	Values map[string]interface{}
}

func Success(message string) StepResult {
	return StepResult{OK: true, Message: message}
}

func SuccessWithValues(message string, values map[string]interface{}) StepResult {
	return StepResult{OK: true, Message: message, Values: values}
}

func BusinessFailure(message string) StepResult {
	return StepResult{OK: false, Retryable: false, Message: message}
}

func SystemFailure(message string) StepResult {
	return StepResult{OK: false, Retryable: true, Message: message}
}

// Step is one named stage of a run.
type Step struct {
	Name string
	Run  func(ctx context.Context, rc *RunContext) StepResult
}

// RunContext accumulates values across the steps of a single attempt. It is
// discarded and rebuilt whenever the sequence restarts.
type RunContext struct {
	Target string
	Values map[string]interface{}
}

func newRunContext(target string) *RunContext {
	return &RunContext{Target: target, Values: make(map[string]interface{})}
}

func (rc *RunContext) merge(values map[string]interface{}) {
	for k, v := range values {
		rc.Values[k] = v
	}
}
