package render

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-portfolio/pkg/record"
	"github.com/goliatone/go-portfolio/pkg/recordstore"
)

// Source is the part of the record store the binder reads.
type Source interface {
	Records() []record.Record
	Subscribe(fn recordstore.Listener) func()
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithDeleteAction overrides how row delete actions are built.
func WithDeleteAction(fn func(id int) string) BinderOption {
	return func(b *Binder) {
		if fn != nil {
			b.action = fn
		}
	}
}

// WithBasePath builds delete actions as <base>records/<id>/delete.
func WithBasePath(base string) BinderOption {
	return func(b *Binder) {
		b.action = DeleteActionFor(base)
	}
}

// WithBinderLogger sets the structured logger.
func WithBinderLogger(logger *slog.Logger) BinderOption {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// DeleteActionFor returns the delete action builder for a mount path.
func DeleteActionFor(base string) func(id int) string {
	base = "/" + strings.Trim(base, "/")
	if base != "/" {
		base += "/"
	}
	return func(id int) string {
		return fmt.Sprintf("%srecords/%d/delete", base, id)
	}
}

// Binder keeps a Surface in sync with a Source.
type Binder struct {
	source  Source
	surface Surface
	action  func(id int) string
	logger  *slog.Logger

	mu     sync.Mutex
	cancel func()
}

// Bind subscribes surface to source and draws the current collection.
func Bind(source Source, surface Surface, opts ...BinderOption) *Binder {
	b := &Binder{
		source:  source,
		surface: surface,
		action:  DeleteActionFor("/"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	b.cancel = source.Subscribe(b.handle)
	b.Render()
	return b
}

// Render clears the surface and draws every record in order.
func (b *Binder) Render() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderLocked(b.source.Records())
}

// Close stops listening to the source.
func (b *Binder) Close() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (b *Binder) handle(ev recordstore.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Kind {
	case recordstore.EventAdded:
		b.surface.AppendRow(RowFor(ev.Record, b.action))
		b.surface.SetCount(ev.Count)
	case recordstore.EventLoaded, recordstore.EventDeleted:
		b.renderLocked(ev.Records)
	default:
		b.logger.Debug("render: ignoring event", "kind", ev.Kind)
	}
}

func (b *Binder) renderLocked(records []record.Record) {
	b.surface.Clear()
	for _, rec := range records {
		b.surface.AppendRow(RowFor(rec, b.action))
	}
	b.surface.SetCount(len(records))
}
