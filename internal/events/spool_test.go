package events

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("spool", func() {
	var (
		dir   string
		spool *Spool
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		spool, err = NewSpool(dir)
		Expect(err).To(BeNil())
	})

	It("carries events across in emission order", func() {
		spool.Emit("automation:sunat", NewProgress("sunat", "login ok"))
		spool.Emit("automation:sunat", NewProgress("sunat", "periods selected"))
		spool.Emit("automation:sunat", NewProgress("sunat", "export started"))

		entries, err := spool.Drain()
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Event.Message).To(Equal("login ok"))
		Expect(entries[1].Event.Message).To(Equal("periods selected"))
		Expect(entries[2].Event.Message).To(Equal("export started"))
	})

	It("consumes each event exactly once", func() {
		spool.Emit("automation:sap", NewProgress("sap", "report open"))

		first, err := spool.Drain()
		Expect(err).To(BeNil())
		Expect(first).To(HaveLen(1))

		second, err := spool.Drain()
		Expect(err).To(BeNil())
		Expect(second).To(BeEmpty())
	})

	It("discards malformed spool files", func() {
		junk := filepath.Join(dir, "00000000000000000000-000000-junk.event.json")
		Expect(os.WriteFile(junk, []byte("{not json"), 0o644)).To(Succeed())
		spool.Emit("automation:sap", NewProgress("sap", "filters applied"))

		entries, err := spool.Drain()
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Event.Message).To(Equal("filters applied"))
		Expect(junk).ToNot(BeAnExistingFile())
	})

	It("ignores files that are not spool entries", func() {
		Expect(os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0o644)).To(Succeed())

		entries, err := spool.Drain()
		Expect(err).To(BeNil())
		Expect(entries).To(BeEmpty())
	})
})

var _ = Describe("relay", func() {
	It("broadcasts drained events to hub subscribers", func() {
		spool, err := NewSpool(GinkgoT().TempDir())
		Expect(err).To(BeNil())
		hub := NewHub()
		ch, unsub := hub.Subscribe("sse:viewer")
		defer unsub()

		spool.Emit("automation:sunat", NewProgress("sunat", "card data fetched"))

		NewRelay(spool, hub).Pump()

		Eventually(ch).Should(Receive(WithTransform(func(e Event) string { return e.Message }, Equal("card data fetched"))))
	})

	It("suppresses the emitting participant like any hub send", func() {
		spool, err := NewSpool(GinkgoT().TempDir())
		Expect(err).To(BeNil())
		hub := NewHub()
		ch, unsub := hub.Subscribe("automation:sunat")
		defer unsub()

		spool.Emit("automation:sunat", NewProgress("sunat", "login ok"))

		NewRelay(spool, hub).Pump()

		Consistently(ch, "100ms").ShouldNot(Receive())
	})
})
