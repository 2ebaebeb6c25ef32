// Package editor serializes concurrent edits of a single publication.
//
// A Session owns its publication. Every mutation names the version the
// caller last observed; a stale version is rejected with ErrVersionConflict
// and leaves the publication untouched.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tendant/simple-publication/pkg/publication"
	"github.com/tendant/simple-publication/pkg/publication/codec"
)

// ErrVersionConflict indicates the caller edited a stale version.
var ErrVersionConflict = errors.New("version conflict")

// ConflictError reports the expected and current versions of a rejected edit.
type ConflictError struct {
	Op       string
	Expected uint64
	Current  uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: expected version %d, current version %d", e.Op, e.Expected, e.Current)
}

func (e *ConflictError) Unwrap() error {
	return ErrVersionConflict
}

// Session guards one publication.
type Session struct {
	mu      sync.Mutex
	pub     *publication.Publication
	version uint64

	eventSink EventSink
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithEventSink sets the sink notified after successful mutations.
func WithEventSink(sink EventSink) Option {
	return func(s *Session) {
		s.eventSink = sink
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithVersion starts the session at a version other than zero, e.g. when
// resuming from a stored document.
func WithVersion(v uint64) Option {
	return func(s *Session) {
		s.version = v
	}
}

// New creates a session over a copy of pub; later changes to pub are not
// seen by the session. A nil pub starts an empty untitled publication.
func New(pub *publication.Publication, opts ...Option) *Session {
	if pub == nil {
		pub = publication.New("")
	}
	s := &Session{pub: pub.Clone()}
	for _, opt := range opts {
		opt(s)
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Open decodes a document and starts a session over it.
func Open(r io.Reader, opts ...Option) (*Session, codec.Info, error) {
	pub, info, err := codec.Decode(r)
	if err != nil {
		return nil, info, err
	}
	return New(pub, opts...), info, nil
}

// Version returns the current version.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot returns a deep copy of the publication and its version.
func (s *Session) Snapshot() (*publication.Publication, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub.Clone(), s.version
}

// Save encodes the current publication and returns the version written.
func (s *Session) Save(w io.Writer, opts codec.Options) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := codec.Encode(w, s.pub, opts); err != nil {
		return s.version, err
	}
	return s.version, nil
}

// mutate runs fn under the lock when expected matches the current version,
// then bumps the version and notifies the sink outside the lock.
func (s *Session) mutate(ctx context.Context, op string, expected uint64, fn func(p *publication.Publication) (notify, error)) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return s.Version(), err
	}

	s.mu.Lock()
	if expected != s.version {
		current := s.version
		s.mu.Unlock()
		return current, &ConflictError{Op: op, Expected: expected, Current: current}
	}
	n, err := fn(s.pub)
	if err != nil {
		current := s.version
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "edit rejected", "op", op, "version", current, "err", err)
		return current, err
	}
	s.version++
	version := s.version
	s.mu.Unlock()

	if n != nil {
		if err := n(ctx, s.eventSink); err != nil {
			s.logger.WarnContext(ctx, "event sink failed", "op", op, "err", err)
		}
	}
	if err := s.eventSink.PublicationChanged(ctx, version); err != nil {
		s.logger.WarnContext(ctx, "event sink failed", "op", op, "err", err)
	}
	return version, nil
}

type notify func(ctx context.Context, sink EventSink) error

// SetTitle renames the publication.
func (s *Session) SetTitle(ctx context.Context, expected uint64, title string) (uint64, error) {
	return s.mutate(ctx, "set_title", expected, func(p *publication.Publication) (notify, error) {
		p.SetTitle(title)
		return nil, nil
	})
}

// AddBlock adds a block to the pool.
func (s *Session) AddBlock(ctx context.Context, expected uint64, b *publication.Block) (uint64, error) {
	return s.mutate(ctx, "add_block", expected, func(p *publication.Publication) (notify, error) {
		if err := p.AddBlock(b); err != nil {
			return nil, err
		}
		id, kind := b.ID(), b.Kind()
		return func(ctx context.Context, sink EventSink) error {
			return sink.BlockAdded(ctx, id, kind)
		}, nil
	})
}

// UpdateBlock replaces a block's payload.
func (s *Session) UpdateBlock(ctx context.Context, expected uint64, id publication.BlockID, payload publication.Payload) (uint64, error) {
	return s.mutate(ctx, "update_block", expected, func(p *publication.Publication) (notify, error) {
		if err := p.UpdateBlock(id, payload); err != nil {
			return nil, err
		}
		kind := payload.Kind()
		return func(ctx context.Context, sink EventSink) error {
			return sink.BlockUpdated(ctx, id, kind)
		}, nil
	})
}

// RemoveBlock removes an unreferenced block.
func (s *Session) RemoveBlock(ctx context.Context, expected uint64, id publication.BlockID) (uint64, error) {
	return s.mutate(ctx, "remove_block", expected, func(p *publication.Publication) (notify, error) {
		if err := p.RemoveBlock(id); err != nil {
			return nil, err
		}
		return func(ctx context.Context, sink EventSink) error {
			return sink.BlockRemoved(ctx, id)
		}, nil
	})
}

// DeleteBlock drops every order referencing the block and then removes it.
func (s *Session) DeleteBlock(ctx context.Context, expected uint64, id publication.BlockID) (uint64, error) {
	return s.mutate(ctx, "delete_block", expected, func(p *publication.Publication) (notify, error) {
		if _, err := p.DetachBlock(id); err != nil {
			return nil, err
		}
		if err := p.RemoveBlock(id); err != nil {
			return nil, err
		}
		return func(ctx context.Context, sink EventSink) error {
			return sink.BlockRemoved(ctx, id)
		}, nil
	})
}

// AddSection appends a new section and returns its id.
func (s *Session) AddSection(ctx context.Context, expected uint64, title *string) (publication.SectionID, uint64, error) {
	var id publication.SectionID
	version, err := s.mutate(ctx, "add_section", expected, func(p *publication.Publication) (notify, error) {
		id = p.AddSection(title)
		return sectionChanged(id), nil
	})
	return id, version, err
}

// RemoveSection deletes a section. Its blocks stay in the pool.
func (s *Session) RemoveSection(ctx context.Context, expected uint64, id publication.SectionID) (uint64, error) {
	return s.mutate(ctx, "remove_section", expected, func(p *publication.Publication) (notify, error) {
		if err := p.RemoveSection(id); err != nil {
			return nil, err
		}
		return func(ctx context.Context, sink EventSink) error {
			return sink.SectionRemoved(ctx, id)
		}, nil
	})
}

// MoveSection moves a section to position to.
func (s *Session) MoveSection(ctx context.Context, expected uint64, id publication.SectionID, to int) (uint64, error) {
	return s.mutate(ctx, "move_section", expected, func(p *publication.Publication) (notify, error) {
		if err := p.MoveSection(id, to); err != nil {
			return nil, err
		}
		return sectionChanged(id), nil
	})
}

// SetSectionTitle sets or clears a section title.
func (s *Session) SetSectionTitle(ctx context.Context, expected uint64, id publication.SectionID, title *string) (uint64, error) {
	return s.mutate(ctx, "set_section_title", expected, func(p *publication.Publication) (notify, error) {
		if err := p.SetSectionTitle(id, title); err != nil {
			return nil, err
		}
		return sectionChanged(id), nil
	})
}

// AddSectionOrder places a block in a section at position.
func (s *Session) AddSectionOrder(ctx context.Context, expected uint64, sectionID publication.SectionID, blockID publication.BlockID, position int) (uint64, error) {
	return s.mutate(ctx, "add_section_order", expected, func(p *publication.Publication) (notify, error) {
		if err := p.AddSectionOrder(sectionID, blockID, position); err != nil {
			return nil, err
		}
		return sectionChanged(sectionID), nil
	})
}

// AppendSectionOrder places a block after the last entry of a section.
func (s *Session) AppendSectionOrder(ctx context.Context, expected uint64, sectionID publication.SectionID, blockID publication.BlockID) (int, uint64, error) {
	var index int
	version, err := s.mutate(ctx, "append_section_order", expected, func(p *publication.Publication) (notify, error) {
		i, err := p.AppendSectionOrder(sectionID, blockID)
		if err != nil {
			return nil, err
		}
		index = i
		return sectionChanged(sectionID), nil
	})
	return index, version, err
}

// RemoveSectionOrder removes one entry from a section.
func (s *Session) RemoveSectionOrder(ctx context.Context, expected uint64, sectionID publication.SectionID, blockID publication.BlockID, index int) (uint64, error) {
	return s.mutate(ctx, "remove_section_order", expected, func(p *publication.Publication) (notify, error) {
		if err := p.RemoveSectionOrder(sectionID, blockID, index); err != nil {
			return nil, err
		}
		return sectionChanged(sectionID), nil
	})
}

// Normalize renumbers every section.
func (s *Session) Normalize(ctx context.Context, expected uint64) (uint64, error) {
	return s.mutate(ctx, "normalize", expected, func(p *publication.Publication) (notify, error) {
		p.Normalize()
		return nil, nil
	})
}

func sectionChanged(id publication.SectionID) notify {
	return func(ctx context.Context, sink EventSink) error {
		return sink.SectionChanged(ctx, id)
	}
}
