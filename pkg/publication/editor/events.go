package editor

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-publication/pkg/publication"
)

// EventSink receives lifecycle events after a mutation has been applied.
// Errors are logged by the session and never undo the mutation.
type EventSink interface {
	BlockAdded(ctx context.Context, id publication.BlockID, kind publication.Kind) error
	BlockUpdated(ctx context.Context, id publication.BlockID, kind publication.Kind) error
	BlockRemoved(ctx context.Context, id publication.BlockID) error
	SectionChanged(ctx context.Context, id publication.SectionID) error
	SectionRemoved(ctx context.Context, id publication.SectionID) error
	PublicationChanged(ctx context.Context, version uint64) error
}

// NoopEventSink ignores every event.
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// BlockAdded does nothing and returns nil
func (n *NoopEventSink) BlockAdded(ctx context.Context, id publication.BlockID, kind publication.Kind) error {
	return nil
}

// BlockUpdated does nothing and returns nil
func (n *NoopEventSink) BlockUpdated(ctx context.Context, id publication.BlockID, kind publication.Kind) error {
	return nil
}

// BlockRemoved does nothing and returns nil
func (n *NoopEventSink) BlockRemoved(ctx context.Context, id publication.BlockID) error {
	return nil
}

// SectionChanged does nothing and returns nil
func (n *NoopEventSink) SectionChanged(ctx context.Context, id publication.SectionID) error {
	return nil
}

// SectionRemoved does nothing and returns nil
func (n *NoopEventSink) SectionRemoved(ctx context.Context, id publication.SectionID) error {
	return nil
}

// PublicationChanged does nothing and returns nil
func (n *NoopEventSink) PublicationChanged(ctx context.Context, version uint64) error {
	return nil
}

// LoggingEventSink writes every event to a structured logger.
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a logging event sink. A nil logger uses slog.Default.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) BlockAdded(ctx context.Context, id publication.BlockID, kind publication.Kind) error {
	l.logger.InfoContext(ctx, "block added", "block_id", id, "kind", kind)
	return nil
}

func (l *LoggingEventSink) BlockUpdated(ctx context.Context, id publication.BlockID, kind publication.Kind) error {
	l.logger.InfoContext(ctx, "block updated", "block_id", id, "kind", kind)
	return nil
}

func (l *LoggingEventSink) BlockRemoved(ctx context.Context, id publication.BlockID) error {
	l.logger.InfoContext(ctx, "block removed", "block_id", id)
	return nil
}

func (l *LoggingEventSink) SectionChanged(ctx context.Context, id publication.SectionID) error {
	l.logger.InfoContext(ctx, "section changed", "section_id", id)
	return nil
}

func (l *LoggingEventSink) SectionRemoved(ctx context.Context, id publication.SectionID) error {
	l.logger.InfoContext(ctx, "section removed", "section_id", id)
	return nil
}

func (l *LoggingEventSink) PublicationChanged(ctx context.Context, version uint64) error {
	l.logger.DebugContext(ctx, "publication changed", "version", version)
	return nil
}
