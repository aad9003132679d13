package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const spoolSuffix = ".event.json"

// Spool carries events across the plane boundary over the shared exchange
// filesystem: the worker appends one file per event, the control plane
// drains them in arrival order and relays them into its hub. Emission is a
// side effect of the emitting step; a write error is logged and the event
// dropped, never surfaced.
type Spool struct {
	dir    string
	seq    atomic.Uint64
	logger *zap.SugaredLogger
}

// SpooledEvent is the on-disk envelope: the hub participant id of the
// emitter plus the event itself.
type SpooledEvent struct {
	Sender string `json:"sender"`
	Event  Event  `json:"event"`
}

func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating event spool: %w", err)
	}
	return &Spool{dir: dir, logger: zap.S().Named("spool")}, nil
}

// Emit appends one event to the spool. It satisfies the progress emitter
// seam of the automation machine.
func (s *Spool) Emit(senderID string, e Event) {
	data, err := json.Marshal(SpooledEvent{Sender: senderID, Event: e})
	if err != nil {
		s.logger.Errorf("failed to encode event from %s: %v", senderID, err)
		return
	}

	// timestamp-first names keep ReadDir's lexical order chronological
	name := fmt.Sprintf("%020d-%06d-%s%s", time.Now().UnixNano(), s.seq.Add(1), uuid.NewString(), spoolSuffix)
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Errorf("failed to spool event from %s: %v", senderID, err)
		return
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		s.logger.Errorf("failed to publish spooled event from %s: %v", senderID, err)
	}
}

// Drain consumes every spooled event in arrival order, deleting the files.
// Malformed files are discarded; a file whose removal fails is left for the
// next pass rather than delivered twice in a row.
func (s *Spool) Drain() ([]SpooledEvent, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading event spool: %w", err)
	}

	var out []SpooledEvent
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), spoolSuffix) {
			continue
		}
		path := filepath.Join(s.dir, d.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Errorf("failed to read spooled event %s: %v", d.Name(), err)
			continue
		}

		entry := SpooledEvent{}
		if err := json.Unmarshal(data, &entry); err != nil {
			s.logger.Warnf("discarding malformed spooled event %s: %v", d.Name(), err)
			_ = os.Remove(path)
			continue
		}

		if err := os.Remove(path); err != nil {
			s.logger.Errorf("failed to remove spooled event %s: %v", d.Name(), err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
