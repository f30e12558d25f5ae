package eventbus

import (
	"context"
	"log/slog"
)

// LogConsumer logs every event: milestones at info, per-file events at debug.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{logger: logger}
}

func (c *LogConsumer) HandleEvent(ctx context.Context, evt Event) error {
	attrs := []any{"run", evt.RunID}
	level := slog.LevelInfo
	switch evt.Kind {
	case RunStarted:
		attrs = append(attrs, "slices", evt.Count)
	case EnumsRegistered:
		attrs = append(attrs, "enums", evt.Count, "module", evt.Path)
	case SliceRendered:
		attrs = append(attrs, "flow", evt.Flow, "slice", evt.Slice, "files", evt.Count)
	case FilePlanned:
		level = slog.LevelDebug
		attrs = append(attrs, "path", evt.Path)
	case RunFinished:
		attrs = append(attrs, "files", evt.Count)
	case RunFailed:
		level = slog.LevelError
		attrs = append(attrs, "err", evt.Err)
	}
	c.logger.Log(ctx, level, string(evt.Kind), attrs...)
	return nil
}
