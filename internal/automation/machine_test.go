package automation_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sertech/docflow/internal/automation"
	"github.com/sertech/docflow/internal/events"
)

func TestAutomation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Automation Suite")
}

func step(name string, fn func(rc *automation.RunContext) automation.StepResult) automation.Step {
	return automation.Step{
		Name: name,
		Run: func(_ context.Context, rc *automation.RunContext) automation.StepResult {
			return fn(rc)
		},
	}
}

var _ = Describe("machine", func() {
	It("completes when every step succeeds and merges step values", func() {
		var sawHandle interface{}
		m := automation.NewMachine("sap", []automation.Step{
			step("login", func(rc *automation.RunContext) automation.StepResult {
				return automation.SuccessWithValues("logged in", map[string]interface{}{"frame": "report-frame"})
			}),
			step("export", func(rc *automation.RunContext) automation.StepResult {
				sawHandle = rc.Values["frame"]
				return automation.Success("exported")
			}),
		})

		res := m.Run(context.Background())
		Expect(res.Status).To(Equal(automation.RunCompleted))
		Expect(res.Attempts).To(Equal(1))
		Expect(sawHandle).To(Equal("report-frame"))
	})

	It("retries the whole sequence on system faults until attempts are exhausted", func() {
		loginRuns := 0
		teardowns := 0
		m := automation.NewMachine("sunat",
			[]automation.Step{
				step("login", func(*automation.RunContext) automation.StepResult {
					loginRuns++
					return automation.SystemFailure("portal timed out")
				}),
				step("never", func(*automation.RunContext) automation.StepResult {
					Fail("must not reach the second step")
					return automation.Success("")
				}),
			},
			automation.WithMaxAttempts(3),
			automation.WithTeardown(func(context.Context) { teardowns++ }),
		)

		res := m.Run(context.Background())
		Expect(res.Status).To(Equal(automation.RunFailedExhausted))
		Expect(res.Attempts).To(Equal(3))
		Expect(loginRuns).To(Equal(3))
		Expect(teardowns).To(Equal(3))
	})

	It("terminates after exactly one attempt on a business failure", func() {
		attempts := 0
		m := automation.NewMachine("sunat", []automation.Step{
			step("login", func(*automation.RunContext) automation.StepResult {
				attempts++
				return automation.BusinessFailure("invalid credentials")
			}),
		}, automation.WithMaxAttempts(3))

		res := m.Run(context.Background())
		Expect(res.Status).To(Equal(automation.RunFailedDefinitive))
		Expect(res.Attempts).To(Equal(1))
		Expect(attempts).To(Equal(1))
		Expect(res.Message).To(ContainSubstring("invalid credentials"))
	})

	It("restarts with fresh context after a retryable failure", func() {
		attempt := 0
		m := automation.NewMachine("sap", []automation.Step{
			step("login", func(rc *automation.RunContext) automation.StepResult {
				attempt++
				Expect(rc.Values).To(BeEmpty())
				if attempt == 1 {
					return automation.SuccessWithValues("ok", map[string]interface{}{"stale": true})
				}
				return automation.Success("ok")
			}),
			step("filters", func(*automation.RunContext) automation.StepResult {
				if attempt == 1 {
					return automation.SystemFailure("frame detached")
				}
				return automation.Success("filters applied")
			}),
		})

		res := m.Run(context.Background())
		Expect(res.Status).To(Equal(automation.RunCompleted))
		Expect(res.Attempts).To(Equal(2))
	})

	It("converts a panicking step into a retryable system fault", func() {
		runs := 0
		m := automation.NewMachine("sap", []automation.Step{
			step("export", func(*automation.RunContext) automation.StepResult {
				runs++
				panic("driver crashed")
			}),
		}, automation.WithMaxAttempts(2))

		res := m.Run(context.Background())
		Expect(res.Status).To(Equal(automation.RunFailedExhausted))
		Expect(runs).To(Equal(2))
	})

	It("emits progress for every step without affecting control flow", func() {
		hub := events.NewHub()
		ch, unsub := hub.Subscribe("observer")
		defer unsub()

		m := automation.NewMachine("sunat", []automation.Step{
			step("login", func(*automation.RunContext) automation.StepResult { return automation.Success("logged in") }),
			step("export", func(*automation.RunContext) automation.StepResult { return automation.Success("exported") }),
		}, automation.WithEmitter(hub))

		res := m.Run(context.Background())
		Expect(res.Completed()).To(BeTrue())

		var messages []string
		for len(ch) > 0 {
			e := <-ch
			messages = append(messages, e.Message)
		}
		Expect(messages).To(ContainElements("logged in", "exported"))
	})
})

var _ = Describe("portal sequences", func() {
	It("rejects unknown targets", func() {
		_, err := automation.NewPortalMachine("ebay", nil)
		Expect(err).ToNot(BeNil())
	})

	It("drives the driver through the tax portal sequence", func() {
		d := &recordingDriver{}
		m, err := automation.NewPortalMachine(automation.TargetTaxPortal, d)
		Expect(err).To(BeNil())

		res := m.Run(context.Background())
		Expect(res.Completed()).To(BeTrue())
		Expect(d.names).To(Equal([]string{
			"login", "dismiss_modals", "open_validation_menu",
			"select_periods", "fetch_pending_summary", "export_pending",
		}))
		Expect(d.teardowns).To(Equal(1))
	})
})

type recordingDriver struct {
	names     []string
	teardowns int
}

func (d *recordingDriver) Step(_ context.Context, name string, _ *automation.RunContext) automation.StepResult {
	d.names = append(d.names, name)
	return automation.Success(name + " done")
}

func (d *recordingDriver) Teardown(context.Context) {
	d.teardowns++
}
