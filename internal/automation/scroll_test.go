package automation_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sertech/docflow/internal/automation"
)

var _ = Describe("row tracker", func() {
	It("processes the first observation of each distinct identity", func() {
		t := automation.NewRowTracker(5)
		Expect(t.Observe("1|F-001")).To(Equal(automation.RowProcess))
		Expect(t.Observe("2|F-002")).To(Equal(automation.RowProcess))
		Expect(t.Processed()).To(Equal(2))
	})

	It("skips identities that were already handled", func() {
		t := automation.NewRowTracker(5)
		Expect(t.Observe("1|F-001")).To(Equal(automation.RowProcess))
		Expect(t.Observe("2|F-002")).To(Equal(automation.RowProcess))
		Expect(t.Observe("1|F-001")).To(Equal(automation.RowSkip))
		Expect(t.Processed()).To(Equal(2))
	})

	It("declares the listing exhausted after the configured threshold of repeats", func() {
		t := automation.NewRowTracker(5)
		Expect(t.Observe("9|F-009")).To(Equal(automation.RowProcess))

		decisions := make([]automation.RowDecision, 0, 20)
		for i := 0; i < 20; i++ {
			d := t.Observe("9|F-009")
			decisions = append(decisions, d)
			if d == automation.RowExhausted {
				break
			}
		}
		Expect(decisions).To(HaveLen(5))
		Expect(decisions[4]).To(Equal(automation.RowExhausted))
	})

	It("resets the repeat counter when a new identity appears", func() {
		t := automation.NewRowTracker(3)
		t.Observe("1|A")
		t.Observe("1|A")
		t.Observe("1|A")
		Expect(t.Observe("2|B")).To(Equal(automation.RowProcess))
		Expect(t.Observe("2|B")).To(Equal(automation.RowSkip))
		Expect(t.Observe("2|B")).To(Equal(automation.RowSkip))
		Expect(t.Observe("2|B")).To(Equal(automation.RowExhausted))
	})
})

var _ = Describe("sweep", func() {
	It("terminates against a listing that re-renders the same stale row", func() {
		lister := &fakeLister{
			renders: func(call int) []automation.Row {
				// the UI keeps re-rendering the last row forever
				return []automation.Row{{Key: "7|F-007"}}
			},
		}

		processed, err := automation.Sweep(context.Background(), lister, 5)
		Expect(err).To(BeNil())
		Expect(processed).To(Equal(1))
		Expect(lister.processed).To(Equal([]string{"7|F-007"}))
	})

	It("processes every distinct row exactly once across renders", func() {
		lister := &fakeLister{
			renders: func(call int) []automation.Row {
				switch call {
				case 0:
					return []automation.Row{{Key: "1|A"}, {Key: "2|B"}}
				case 1:
					return []automation.Row{{Key: "2|B"}, {Key: "3|C"}}
				default:
					return []automation.Row{{Key: "3|C"}}
				}
			},
		}

		processed, err := automation.Sweep(context.Background(), lister, 3)
		Expect(err).To(BeNil())
		Expect(processed).To(Equal(3))
		Expect(lister.processed).To(Equal([]string{"1|A", "2|B", "3|C"}))
	})

	It("gives up on listings that render nothing", func() {
		lister := &fakeLister{
			renders: func(int) []automation.Row { return nil },
		}

		processed, err := automation.Sweep(context.Background(), lister, 4)
		Expect(err).To(BeNil())
		Expect(processed).To(Equal(0))
	})

	It("stops on processing errors", func() {
		lister := &fakeLister{
			renders: func(int) []automation.Row {
				return []automation.Row{{Key: "1|A"}}
			},
			failOn: "1|A",
		}

		_, err := automation.Sweep(context.Background(), lister, 4)
		Expect(err).To(MatchError(ContainSubstring("download failed")))
	})
})

type fakeLister struct {
	renders   func(call int) []automation.Row
	call      int
	processed []string
	failOn    string
}

func (f *fakeLister) Rows(context.Context) ([]automation.Row, error) {
	rows := f.renders(f.call)
	return rows, nil
}

func (f *fakeLister) Process(_ context.Context, row automation.Row) error {
	if row.Key == f.failOn {
		return fmt.Errorf("download failed for %s", row.Key)
	}
	f.processed = append(f.processed, row.Key)
	return nil
}

func (f *fakeLister) Scroll(context.Context) error {
	f.call++
	return nil
}
