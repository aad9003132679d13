package automation

import "context"

// Driver is the opaque browser capability that operates one portal. The
// concrete implementation lives in the execution plane and is not part of
// this module; everything here treats a step as a named action returning the
// uniform StepResult contract.
type Driver interface {
	// Step performs the named action with the accumulated run context.
	Step(ctx context.Context, name string, rc *RunContext) StepResult
	// Teardown releases any held session resources. Called between retry
	// attempts and after the final one; must be safe to call repeatedly.
	Teardown(ctx context.Context)
}
