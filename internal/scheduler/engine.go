// Package scheduler fires configured execution rules at their wall-clock
// time. The engine scans the rule set once a minute and dispatches each due
// rule at most once per calendar day.
package scheduler

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/sertech/docflow/pkg/metrics"
)

const DefaultTickInterval = 60 * time.Second

// Rule is one schedule entry: fire at Time (HH:MM, local clock) on each of
// the listed days.
type Rule struct {
	ID   string
	Name string
	Time string
	Days []string
}

// RuleSource yields the currently active rules. It is consulted on every
// tick so edits take effect without restarting the engine.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]Rule, error)
}

// Dispatcher launches the work a due rule stands for.
type Dispatcher interface {
	Dispatch(ctx context.Context, rule Rule) error
}

type Engine struct {
	source     RuleSource
	dispatcher Dispatcher
	cache      *fireCache
	interval   time.Duration
	clock      func() time.Time
	logger     *zap.SugaredLogger
}

type EngineOption func(*Engine)

func WithTickInterval(interval time.Duration) EngineOption {
	return func(e *Engine) { e.interval = interval }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

func NewEngine(source RuleSource, dispatcher Dispatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		source:     source,
		dispatcher: dispatcher,
		cache:      newFireCache(),
		interval:   DefaultTickInterval,
		clock:      time.Now,
		logger:     zap.S().Named("scheduler"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := jitterbug.New(e.interval, &jitterbug.Norm{Stdev: 500 * time.Millisecond})
	defer ticker.Stop()

	e.logger.Infof("schedule engine started, scanning every %s", e.interval)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("schedule engine stopped")
			return
		case <-ticker.C:
		}
		e.Evaluate(ctx)
	}
}

// Evaluate performs one scan of the rule set against the current clock,
// dispatching every due rule that has not fired today.
func (e *Engine) Evaluate(ctx context.Context) {
	now := e.clock()

	rules, err := e.source.ActiveRules(ctx)
	if err != nil {
		e.logger.Errorf("failed to load schedule rules: %v", err)
		return
	}

	for _, rule := range rules {
		if rule.Time != now.Format("15:04") || !dayMatches(rule.Days, now.Weekday()) {
			continue
		}
		if e.cache.MarkFired(rule.ID, now) {
			continue
		}
		e.logger.Infof("rule %s (%s) is due, dispatching", rule.ID, rule.Name)
		go e.fire(ctx, rule, now)
	}
}

// fire runs one dispatch in its own goroutine. The daily slot is held while
// the dispatch runs so overlapping ticks cannot double-fire; a failed or
// crashed dispatch releases it again.
func (e *Engine) fire(ctx context.Context, rule Rule, firedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("dispatch of rule %s crashed: %v", rule.ID, r)
			metrics.IncreaseScheduleFiresTotalMetric("crashed")
			e.cache.Clear(rule.ID, firedAt)
		}
	}()

	if err := e.dispatcher.Dispatch(ctx, rule); err != nil {
		e.logger.Errorf("dispatch of rule %s failed: %v", rule.ID, err)
		metrics.IncreaseScheduleFiresTotalMetric("failed")
		e.cache.Clear(rule.ID, firedAt)
		return
	}
	metrics.IncreaseScheduleFiresTotalMetric("dispatched")
}
