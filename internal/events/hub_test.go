package events

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("hub", func() {
	It("delivers to every participant except the sender", func() {
		hub := NewHub()
		botCh, unsubBot := hub.Subscribe("bot")
		defer unsubBot()
		uiCh, unsubUI := hub.Subscribe("ui")
		defer unsubUI()

		hub.Emit("bot", NewLog("sap", "login ok"))

		Eventually(uiCh).Should(Receive(WithTransform(func(e Event) string { return e.Message }, Equal("login ok"))))
		Consistently(botCh, "100ms").ShouldNot(Receive())
	})

	It("is a no-op with no participants connected", func() {
		hub := NewHub()
		Expect(func() { hub.Emit("bot", NewLog("sap", "nobody listening")) }).ToNot(Panic())
	})

	It("drops events for slow consumers instead of blocking", func() {
		hub := NewHub()
		_, unsub := hub.Subscribe("slow")
		defer unsub()

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			for i := 0; i < subscriberBufferSize*2; i++ {
				hub.Emit("bot", NewProgress("sunat", "row"))
			}
			close(done)
		}()
		Eventually(done, "2s").Should(BeClosed())
	})

	It("disconnects participants cleanly", func() {
		hub := NewHub()
		ch, unsub := hub.Subscribe("ui")
		unsub()
		Expect(hub.Participants()).To(Equal(0))
		Eventually(ch).Should(BeClosed())
	})
})

var _ = Describe("producer", func() {
	It("drains hub events into the writer", func() {
		hub := NewHub()
		w := newTestWriter()
		p := NewProducer(w)
		p.Attach(hub, "producer")

		hub.Emit("bot", NewLog("sap", "msg1"))
		hub.Emit("bot", NewLog("sap", "msg2"))

		Eventually(w.Count, "2s").Should(Equal(2))
		Expect(p.Close()).To(Succeed())
	})

	It("keeps the emitter unblocked while the writer is slow", func() {
		hub := NewHub()
		w := newTestWriter()
		w.delay = 20 * time.Millisecond
		p := NewProducer(w)
		p.Attach(hub, "producer")

		start := time.Now()
		for i := 0; i < 10; i++ {
			hub.Emit("bot", NewProgress("sap", "step"))
		}
		Expect(time.Since(start)).To(BeNumerically("<", 20*time.Millisecond))

		Eventually(w.Count, "2s").Should(Equal(10))
		Expect(p.Close()).To(Succeed())
	})
})

type testwriter struct {
	mu     sync.Mutex
	events []Event
	delay  time.Duration
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (w *testwriter) Write(_ context.Context, e Event) error {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, e)
	return nil
}

func (w *testwriter) Close(_ context.Context) error {
	return nil
}

func (w *testwriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}
