package automation

// DefaultRepeatThreshold matches the attachment table sweep of the ERP
// portal, whose virtualized rows re-render stale entries while scrolling.
const DefaultRepeatThreshold = 20

type RowDecision int

const (
	// RowProcess: first observation of a distinct identity, handle it.
	RowProcess RowDecision = iota
	// RowSkip: identity was handled earlier, ignore it.
	RowSkip
	// RowExhausted: the listing keeps re-rendering the same row, stop scrolling.
	RowExhausted
)

// RowTracker implements the duplicate-and-termination heuristic for steps
// that sweep an unbounded, lazily-rendered listing: once the same row
// identity is observed threshold times in a row with nothing new appearing,
// the listing is treated as exhausted.
type RowTracker struct {
	seen               map[string]struct{}
	lastKey            string
	consecutiveRepeats int
	threshold          int
	processed          int
}

func NewRowTracker(threshold int) *RowTracker {
	if threshold <= 0 {
		threshold = DefaultRepeatThreshold
	}
	return &RowTracker{
		seen:      make(map[string]struct{}),
		threshold: threshold,
	}
}

// Observe classifies one row identity as it scrolls past.
func (t *RowTracker) Observe(key string) RowDecision {
	if key == t.lastKey && t.lastKey != "" {
		t.consecutiveRepeats++
		if t.consecutiveRepeats >= t.threshold {
			return RowExhausted
		}
		return RowSkip
	}
	t.consecutiveRepeats = 0

	if _, ok := t.seen[key]; ok {
		return RowSkip
	}

	t.seen[key] = struct{}{}
	t.lastKey = key
	t.processed++
	return RowProcess
}

// Processed reports how many distinct rows were handled.
func (t *RowTracker) Processed() int {
	return t.processed
}
