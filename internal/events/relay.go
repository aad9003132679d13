package events

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

const DefaultRelayInterval = time.Second

// Relay pumps spooled worker events into the hub, so observers of the
// control plane's event stream see automation progress from the execution
// plane as it happens.
type Relay struct {
	spool    *Spool
	hub      *Hub
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewRelay(spool *Spool, hub *Hub) *Relay {
	return &Relay{
		spool:    spool,
		hub:      hub,
		interval: DefaultRelayInterval,
		logger:   zap.S().Named("relay"),
	}
}

// Run blocks until ctx is cancelled, draining the spool on every tick.
func (r *Relay) Run(ctx context.Context) {
	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: 50 * time.Millisecond})
	defer ticker.Stop()

	r.logger.Infof("event relay started, draining every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopped")
			return
		case <-ticker.C:
		}
		r.Pump()
	}
}

// Pump performs one drain-and-broadcast pass.
func (r *Relay) Pump() {
	entries, err := r.spool.Drain()
	if err != nil {
		r.logger.Errorf("failed to drain event spool: %v", err)
		return
	}
	for _, entry := range entries {
		r.hub.Emit(entry.Sender, entry.Event)
	}
}
