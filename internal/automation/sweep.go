package automation

import "context"

// Row is one entry of a dynamically-loading listing, identified by a key
// built from its stable columns (e.g. position + invoice number).
type Row struct {
	Key    string
	Fields map[string]string
}

// Lister is the driver-side view of a scrolling listing.
type Lister interface {
	// Rows returns the rows currently rendered.
	Rows(ctx context.Context) ([]Row, error)
	// Process handles one newly-observed row (e.g. downloads its attachments).
	Process(ctx context.Context, row Row) error
	// Scroll advances the listing.
	Scroll(ctx context.Context) error
}

// Sweep walks a virtualized listing until the duplicate-and-termination
// heuristic declares it exhausted, processing each distinct row exactly once.
// Empty renders are tolerated up to the same threshold before giving up.
func Sweep(ctx context.Context, lister Lister, threshold int) (int, error) {
	tracker := NewRowTracker(threshold)
	if threshold <= 0 {
		threshold = DefaultRepeatThreshold
	}

	emptyRenders := 0
	for {
		if err := ctx.Err(); err != nil {
			return tracker.Processed(), err
		}

		rows, err := lister.Rows(ctx)
		if err != nil {
			return tracker.Processed(), err
		}

		if len(rows) == 0 {
			emptyRenders++
			if emptyRenders >= threshold {
				return tracker.Processed(), nil
			}
		} else {
			emptyRenders = 0
		}

		for _, row := range rows {
			switch tracker.Observe(row.Key) {
			case RowExhausted:
				return tracker.Processed(), nil
			case RowSkip:
				continue
			case RowProcess:
				if err := lister.Process(ctx, row); err != nil {
					return tracker.Processed(), err
				}
			}
		}

		if err := lister.Scroll(ctx); err != nil {
			return tracker.Processed(), err
		}
	}
}
