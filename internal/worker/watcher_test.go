package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sertech/docflow/internal/automation"
	"github.com/sertech/docflow/internal/events"
	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/internal/ocr"
	"github.com/sertech/docflow/internal/worker"
)

func TestWorker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Worker Suite")
}

var _ = Describe("watcher", func() {
	var (
		queue  *exchange.Queue
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		queue, err = exchange.NewQueue(GinkgoT().TempDir())
		Expect(err).To(BeNil())
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	enqueue := func(job *exchange.Job) {
		Expect(queue.Enqueue(job)).To(Succeed())
	}

	awaitResult := func(jobID string) *exchange.Result {
		var result *exchange.Result
		Eventually(func() bool {
			r, ok, err := queue.TakeResult(jobID)
			Expect(err).To(BeNil())
			result = r
			return ok
		}, "5s", "50ms").Should(BeTrue())
		return result
	}

	It("claims a pending job and deposits its result", func() {
		h := &fakeHandler{data: map[string]interface{}{"answer": "42"}}
		w := worker.NewWatcher(queue, h, 20*time.Millisecond)
		go w.Run(ctx)

		enqueue(&exchange.Job{ID: "job-1", Action: exchange.ActionAnalyzeContent})

		result := awaitResult("job-1")
		Expect(result.Completed()).To(BeTrue())
		Expect(result.Data).To(HaveKeyWithValue("answer", "42"))
		Expect(queue.PendingCount()).To(Equal(0))
	})

	It("deposits a failure result when the handler errors", func() {
		h := &fakeHandler{err: errors.New("portal unreachable")}
		w := worker.NewWatcher(queue, h, 20*time.Millisecond)
		go w.Run(ctx)

		enqueue(&exchange.Job{ID: "job-2", Action: exchange.ActionPortalRun})

		result := awaitResult("job-2")
		Expect(result.Completed()).To(BeFalse())
		Expect(result.Error).To(ContainSubstring("portal unreachable"))
	})

	It("survives a handler crash and keeps serving the queue", func() {
		h := &fakeHandler{panicOn: "job-3", data: map[string]interface{}{"ok": true}}
		w := worker.NewWatcher(queue, h, 20*time.Millisecond)
		go w.Run(ctx)

		enqueue(&exchange.Job{ID: "job-3", Action: exchange.ActionAnalyzeContent})
		enqueue(&exchange.Job{ID: "job-4", Action: exchange.ActionAnalyzeContent})

		crashed := awaitResult("job-3")
		Expect(crashed.Completed()).To(BeFalse())
		Expect(crashed.Error).To(ContainSubstring("crashed"))

		survived := awaitResult("job-4")
		Expect(survived.Completed()).To(BeTrue())
	})

	It("leaves malformed job files quarantined without stalling", func() {
		pending := filepath.Join(queueRoot(queue), "pending", "broken.json")
		Expect(os.WriteFile(pending, []byte("{not json"), 0644)).To(Succeed())

		h := &fakeHandler{data: map[string]interface{}{}}
		w := worker.NewWatcher(queue, h, 20*time.Millisecond)
		go w.Run(ctx)

		enqueue(&exchange.Job{ID: "job-5", Action: exchange.ActionAnalyzeContent})
		result := awaitResult("job-5")
		Expect(result.Completed()).To(BeTrue())

		Eventually(func() bool {
			_, err := os.Stat(filepath.Join(queueRoot(queue), "errors", "broken.json"))
			return err == nil
		}, "5s", "50ms").Should(BeTrue())
	})
})

var _ = Describe("dispatcher", func() {
	var queue *exchange.Queue

	BeforeEach(func() {
		var err error
		queue, err = exchange.NewQueue(GinkgoT().TempDir())
		Expect(err).To(BeNil())
	})

	It("runs a portal job through the automation machine", func() {
		driver := &scriptedDriver{}
		factory := func(req *exchange.PortalRunRequest) (automation.Driver, error) {
			Expect(req.Target).To(Equal(automation.TargetTaxPortal))
			Expect(req.User).To(Equal("user-a"))
			return driver, nil
		}

		d := worker.NewDispatcher(queue, factory, nil, nil)
		payload, _ := json.Marshal(exchange.PortalRunRequest{Target: automation.TargetTaxPortal, User: "user-a"})
		data, err := d.Handle(context.Background(), &exchange.Job{
			ID:      "run-1",
			Action:  exchange.ActionPortalRun,
			Payload: payload,
		})

		Expect(err).To(BeNil())
		Expect(data).To(HaveKeyWithValue("portal", automation.TargetTaxPortal))
		Expect(driver.steps).ToNot(BeEmpty())
		Expect(driver.steps[0]).To(Equal("login"))
	})

	It("spools step progress for the control plane to relay", func() {
		spool, err := events.NewSpool(filepath.Join(queueRoot(queue), "events"))
		Expect(err).To(BeNil())
		driver := &scriptedDriver{}
		factory := func(req *exchange.PortalRunRequest) (automation.Driver, error) { return driver, nil }

		d := worker.NewDispatcher(queue, factory, nil, spool)
		payload, _ := json.Marshal(exchange.PortalRunRequest{Target: automation.TargetTaxPortal})
		_, err = d.Handle(context.Background(), &exchange.Job{
			ID:      "run-3",
			Action:  exchange.ActionPortalRun,
			Payload: payload,
		})
		Expect(err).To(BeNil())

		hub := events.NewHub()
		ch, unsub := hub.Subscribe("sse:viewer")
		defer unsub()
		events.NewRelay(spool, hub).Pump()

		var first events.Event
		Eventually(ch).Should(Receive(&first))
		Expect(first.Type).To(Equal(events.TypeProgress))
		Expect(first.Target).To(Equal(automation.TargetTaxPortal))
	})

	It("surfaces a definitive portal failure as a job error", func() {
		driver := &scriptedDriver{failStep: "login", message: "credentials rejected"}
		factory := func(req *exchange.PortalRunRequest) (automation.Driver, error) { return driver, nil }

		d := worker.NewDispatcher(queue, factory, nil, nil)
		payload, _ := json.Marshal(exchange.PortalRunRequest{Target: automation.TargetTaxPortal})
		_, err := d.Handle(context.Background(), &exchange.Job{
			ID:      "run-2",
			Action:  exchange.ActionPortalRun,
			Payload: payload,
		})

		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("credentials rejected"))
	})

	It("normalizes and classifies the extracted order number", func() {
		analyzer := &fakeAnalyzer{firstPage: &ocr.FirstPageAnalysis{OrderNumber: "OC N° 4300018211-0001"}}
		d := worker.NewDispatcher(queue, nil, analyzer, nil)

		data, err := d.Handle(context.Background(), &exchange.Job{
			ID:       "doc-1",
			Action:   exchange.ActionAnalyzeFirstPage,
			FileName: "doc.pdf",
		})

		Expect(err).To(BeNil())
		Expect(data).To(HaveKeyWithValue("oc_number", "4300018211"))
		Expect(data["document_class"]).To(Equal("ZSES / ZSEC"))
	})

	It("rejects unknown actions", func() {
		d := worker.NewDispatcher(queue, nil, nil, nil)
		_, err := d.Handle(context.Background(), &exchange.Job{ID: "x", Action: "reboot_universe"})
		Expect(err).ToNot(BeNil())
	})

	It("fails document jobs cleanly when no analyzer is attached", func() {
		d := worker.NewDispatcher(queue, nil, nil, nil)
		_, err := d.Handle(context.Background(), &exchange.Job{ID: "doc-2", Action: exchange.ActionAnalyzeFirstPage})
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("analyzer"))
	})
})

var _ = Describe("config", func() {
	It("parses durations from yaml", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "worker.yaml")
		contents := []byte("portal-exchange-dir: " + dir + "\ndocument-exchange-dir: " + dir + "\npoll-interval: 750ms\n")
		Expect(os.WriteFile(path, contents, 0644)).To(Succeed())

		cfg := worker.NewDefault()
		Expect(cfg.ParseConfigFile(path)).To(Succeed())
		Expect(cfg.PollInterval.Duration).To(Equal(750 * time.Millisecond))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects a missing exchange tree", func() {
		cfg := worker.NewDefault()
		cfg.PortalExchangeDir = "/definitely/not/here"
		cfg.DocumentExchangeDir = GinkgoT().TempDir()
		Expect(cfg.Validate()).ToNot(Succeed())
	})
})

func queueRoot(q *exchange.Queue) string {
	return filepath.Dir(filepath.Dir(q.ArtifactPath("x")))
}

type fakeHandler struct {
	data    map[string]interface{}
	err     error
	panicOn string
}

func (f *fakeHandler) Handle(_ context.Context, job *exchange.Job) (map[string]interface{}, error) {
	if job.ID == f.panicOn {
		panic("handler blew up")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type scriptedDriver struct {
	steps    []string
	failStep string
	message  string
}

func (s *scriptedDriver) Step(_ context.Context, name string, _ *automation.RunContext) automation.StepResult {
	s.steps = append(s.steps, name)
	if name == s.failStep {
		return automation.BusinessFailure(s.message)
	}
	return automation.Success(name + " done")
}

func (s *scriptedDriver) Teardown(_ context.Context) {}

type fakeAnalyzer struct {
	firstPage *ocr.FirstPageAnalysis
}

func (f *fakeAnalyzer) AnalyzeFirstPage(_ context.Context, _ string) (*ocr.FirstPageAnalysis, error) {
	return f.firstPage, nil
}

func (f *fakeAnalyzer) ValidateRequirements(_ context.Context, _ string, _ string) (*ocr.Validation, error) {
	return &ocr.Validation{Status: ocr.ValidationPerformed, Compliant: true}, nil
}

func (f *fakeAnalyzer) AnalyzeContent(_ context.Context, _ []byte, _ string, _ string) (string, error) {
	return "", nil
}
