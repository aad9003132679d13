package events

import (
	"context"

	"go.uber.org/zap"
)

// event writer used in dev
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, e Event) error {
	zap.S().Named("stdout_writer").Infow("event wrote",
		"type", e.Type, "target", e.Target, "message", e.Message, "date", e.Date)
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
