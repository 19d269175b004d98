package recordstore

import "github.com/goliatone/go-portfolio/pkg/record"

// EventKind identifies a state transition of the store.
type EventKind string

const (
	// EventLoaded fires after Load populated the collection.
	EventLoaded EventKind = "loaded"
	// EventAdded fires after a record was appended and persisted.
	EventAdded EventKind = "added"
	// EventDeleted fires after a record was removed and persisted.
	EventDeleted EventKind = "deleted"
)

// Event describes a committed change. Records is a snapshot of the whole
// collection after the change; Record is the affected row for add/delete.
type Event struct {
	Kind    EventKind
	Record  record.Record
	Records []record.Record
	Count   int
	Seeded  bool
}

// Listener receives events synchronously, in subscription order, after the
// store lock has been released.
type Listener func(Event)

// OnKind wraps fn so it only sees events of the given kind.
func OnKind(kind EventKind, fn func(Event)) Listener {
	return func(ev Event) {
		if ev.Kind == kind && fn != nil {
			fn(ev)
		}
	}
}
