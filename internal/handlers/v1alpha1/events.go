package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// (GET /api/v1/events)
// StreamEvents relays the broadcast hub to the client as server-sent events.
// Each connection is its own hub participant, so a run's progress reaches
// every watching browser while the emitting component never hears itself.
func (h *ServiceHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id := "sse:" + uuid.NewString()
	ch, unsub := h.hub.Subscribe(id)
	defer unsub()

	h.logger.Infof("event stream %s connected", id)
	defer h.logger.Infof("event stream %s disconnected", id)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Errorf("failed to encode event for %s: %v", id, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
