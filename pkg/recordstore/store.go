// Package recordstore owns the ordered contact collection, mirrors it to a
// key-value backend and announces every committed change to subscribers.
//
// The store is a pure state layer: it knows nothing about presentation.
// Renderers subscribe and project events onto their own surface.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-portfolio/pkg/kv"
	"github.com/goliatone/go-portfolio/pkg/record"
)

type subscription struct {
	id int
	fn Listener
}

// Store is the single authority over the record collection. Every mutation
// writes the full serialised collection to the backend before it is
// announced; a failed write rolls the in-memory change back.
//
// Listeners must not call Add or Delete: mutations are serialised with the
// delivery of their events.
type Store struct {
	backend kv.Store
	key     string
	seed    []record.Record
	policy  CorruptPolicy
	logger  *slog.Logger

	// writeMu serialises mutations together with event delivery so
	// subscribers observe events in commit order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	records []record.Record
	loaded  bool

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

// New constructs a store over backend. Call Load before mutating.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		seed:    record.Seed(),
		policy:  CorruptFail,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Key reports the persistence key.
func (s *Store) Key() string {
	return s.key
}

// Load reads the persisted collection. When the key is absent the seed set
// is installed and persisted immediately. Corrupt data, whether a bad value
// or a backend reporting kv.ErrCorrupt, is handled according to the
// configured CorruptPolicy.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("recordstore: backend is nil")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.backend.Get(ctx, s.key)
	var decodeErr error
	if err != nil {
		if !errors.Is(err, kv.ErrCorrupt) {
			return fmt.Errorf("recordstore: read %q: %w", s.key, err)
		}
		decodeErr = err
	}

	seeded := false
	var records []record.Record
	switch {
	case decodeErr == nil && !ok:
		records = record.Clone(s.seed)
		seeded = true
	default:
		var decoded []record.Record
		if decodeErr == nil {
			decoded, decodeErr = record.Decode(raw)
		}
		if decodeErr != nil {
			if s.policy != CorruptReseed {
				return fmt.Errorf("%w: key %q: %w", ErrCorruptData, s.key, decodeErr)
			}
			s.logger.Warn("persisted records are corrupt, reseeding",
				"key", s.key,
				"error", decodeErr,
			)
			records = record.Clone(s.seed)
			seeded = true
		} else {
			records = decoded
		}
	}

	if seeded {
		if err := s.persist(ctx, records); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.records = records
	s.loaded = true
	snapshot := record.Clone(records)
	s.mu.Unlock()

	s.logger.Debug("records loaded", "key", s.key, "count", len(snapshot), "seeded", seeded)
	s.emit(Event{Kind: EventLoaded, Records: snapshot, Count: len(snapshot), Seeded: seeded})
	return nil
}

// Records returns a copy of the collection in order.
func (s *Store) Records() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return record.Clone(s.records)
}

// Count reports the number of records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with id.
func (s *Store) Get(id int) (record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := record.IndexOf(s.records, id)
	if idx < 0 {
		return record.Record{}, false
	}
	return s.records[idx], true
}

// Add appends a record with a freshly computed id and persists the full
// collection. Inputs are stored as given; validation is the caller's job.
func (s *Store) Add(ctx context.Context, name, email, phone string) (record.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return record.Record{}, ErrNotLoaded
	}
	next := record.Clone(s.records)
	s.mu.RUnlock()

	rec := record.Record{
		ID:    record.NextID(next),
		Name:  name,
		Email: email,
		Phone: phone,
	}
	next = append(next, rec)

	if err := s.persist(ctx, next); err != nil {
		return record.Record{}, err
	}

	s.mu.Lock()
	s.records = next
	snapshot := record.Clone(next)
	s.mu.Unlock()

	s.logger.Info("record added", "id", rec.ID, "count", len(snapshot))
	s.emit(Event{Kind: EventAdded, Record: rec, Records: snapshot, Count: len(snapshot)})
	return rec, nil
}

// Delete removes the record with id. An unknown id is a silent no-op: it
// returns false without touching storage or notifying subscribers.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return false, ErrNotLoaded
	}
	idx := record.IndexOf(s.records, id)
	if idx < 0 {
		s.mu.RUnlock()
		return false, nil
	}
	removed := s.records[idx]
	next := make([]record.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	s.mu.RUnlock()

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.records = next
	snapshot := record.Clone(next)
	s.mu.Unlock()

	s.logger.Info("record deleted", "id", id, "count", len(snapshot))
	s.emit(Event{Kind: EventDeleted, Record: removed, Records: snapshot, Count: len(snapshot)})
	return true, nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) persist(ctx context.Context, records []record.Record) error {
	payload, err := record.Encode(records)
	if err != nil {
		return fmt.Errorf("recordstore: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, payload); err != nil {
		return fmt.Errorf("recordstore: write %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Summary renders a one-line description of the store state for logs and
// CLI output.
func (s *Store) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		ids = append(ids, fmt.Sprint(rec.ID))
	}
	return fmt.Sprintf("%s: %d record(s) [%s]", s.key, len(s.records), strings.Join(ids, ","))
}
