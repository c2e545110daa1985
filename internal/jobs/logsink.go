package jobs

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes job events to the structured log. It is the default sink
// when no realtime channel is wired.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish implements EventSink.
func (s *LogSink) Publish(_ context.Context, ev Event) {
	s.logger.Info().
		Str("job_id", ev.JobID).
		Str("status", ev.Status).
		Int("progress", ev.Progress).
		Str("asset_type", ev.AssetType).
		Str("message", ev.Message).
		Msg("job event")
}

var _ EventSink = (*LogSink)(nil)
