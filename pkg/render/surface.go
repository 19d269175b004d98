// Package render projects record store state onto a presentation surface.
//
// The store knows nothing about presentation; a Binder subscribes to it and
// replays each event as Surface calls: a full redraw after load or delete,
// one appended row after add.
package render

import (
	"sync"

	"github.com/goliatone/go-portfolio/pkg/record"
)

// Row is one rendered table row. DeleteAction is the form action that
// removes it.
type Row struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DeleteAction string `json:"delete_action"`
}

// Surface receives presentation updates.
type Surface interface {
	Clear()
	AppendRow(Row)
	SetCount(int)
}

// MemorySurface keeps the rendered table in memory for the page renderer.
type MemorySurface struct {
	mu      sync.RWMutex
	rows    []Row
	count   int
	clears  int
	appends int
}

var _ Surface = (*MemorySurface)(nil)

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

func (s *MemorySurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.clears++
}

func (s *MemorySurface) AppendRow(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	s.appends++
}

func (s *MemorySurface) SetCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
}

// Rows returns a copy of the rendered rows.
func (s *MemorySurface) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Count returns the displayed record count.
func (s *MemorySurface) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Stats reports how many times the surface was cleared and how many rows
// were appended since creation.
func (s *MemorySurface) Stats() (clears, appends int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clears, s.appends
}

// RowFor converts a record using action to build the delete action.
func RowFor(rec record.Record, action func(id int) string) Row {
	row := Row{ID: rec.ID, Name: rec.Name, Email: rec.Email, Phone: rec.Phone}
	if action != nil {
		row.DeleteAction = action(rec.ID)
	}
	return row
}
