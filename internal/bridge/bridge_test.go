package bridge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sertech/docflow/internal/bridge"
	"github.com/sertech/docflow/internal/exchange"
)

func TestBridge(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bridge Suite")
}

var _ = Describe("submit and wait", func() {
	var (
		root string
		q    *exchange.Queue
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		var err error
		q, err = exchange.NewQueue(root)
		Expect(err).To(BeNil())
	})

	It("returns the result once the worker deposits it", func() {
		b := bridge.New(q, bridge.WithWaitTimeout(5*time.Second), bridge.WithPollInterval(20*time.Millisecond))

		go func() {
			defer GinkgoRecover()
			var job *exchange.Job
			Eventually(func() int {
				jobs, _ := q.PollPending()
				if len(jobs) == 1 {
					job = jobs[0]
				}
				return len(jobs)
			}, "2s", "10ms").Should(Equal(1))

			Expect(q.Claim(job.ID)).To(Succeed())
			Expect(q.Complete(job.ID, exchange.NewCompletedResult(job.ID, map[string]interface{}{"oc": "4300000001"}))).To(Succeed())
		}()

		result, err := b.SubmitAndWait(context.Background(), bridge.Submission{Action: exchange.ActionAnalyzeFirstPage})
		Expect(err).To(BeNil())
		Expect(result.Completed()).To(BeTrue())
		Expect(result.Data).To(HaveKeyWithValue("oc", "4300000001"))
	})

	It("returns ErrTimeout when no worker answers", func() {
		b := bridge.New(q, bridge.WithWaitTimeout(100*time.Millisecond), bridge.WithPollInterval(10*time.Millisecond))

		_, err := b.SubmitAndWait(context.Background(), bridge.Submission{Action: exchange.ActionPortalRun})
		Expect(err).To(MatchError(bridge.ErrTimeout))

		// the job itself is not cancelled
		Expect(q.PendingCount()).To(Equal(1))
	})

	It("fails synchronously on unreachable artifacts without enqueueing", func() {
		b := bridge.New(q)

		_, err := b.SubmitAndWait(context.Background(), bridge.Submission{
			Action:       exchange.ActionValidateRequirements,
			ArtifactPath: "/nope/missing.pdf",
		})
		Expect(err).ToNot(BeNil())
		Expect(err).ToNot(MatchError(bridge.ErrTimeout))

		entries, readErr := os.ReadDir(filepath.Join(root, "pending"))
		Expect(readErr).To(BeNil())
		Expect(entries).To(BeEmpty())
	})

	It("stops waiting when the caller context is cancelled", func() {
		b := bridge.New(q, bridge.WithWaitTimeout(10*time.Second), bridge.WithPollInterval(10*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := b.SubmitAndWait(ctx, bridge.Submission{Action: exchange.ActionPortalRun})
		Expect(err).To(MatchError(context.Canceled))
	})
})
