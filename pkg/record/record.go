// Package record defines the contact row stored by the portfolio table and
// the JSON blob format used to persist the whole collection under a single
// key-value entry.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one logical row of contact data. Records are immutable once
// created; the collection only grows by append and shrinks by delete.
type Record struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Seed returns the default collection written on first run.
func Seed() []Record {
	return []Record{
		{ID: 1, Name: "Алексей Петров", Email: "alex@example.com", Phone: "+7 (999) 123-45-67"},
		{ID: 2, Name: "Мария Иванова", Email: "maria@example.ru", Phone: "+7 (999) 987-65-43"},
		{ID: 3, Name: "Иван Сидоров", Email: "ivan@example.com", Phone: "+7 (999) 555-55-55"},
	}
}

// NextID returns max(existing ids)+1, or 1 for an empty collection.
func NextID(records []Record) int {
	maxID := 0
	for _, rec := range records {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return maxID + 1
}

// IndexOf returns the position of the record with id, or -1.
func IndexOf(records []Record, id int) int {
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Clone copies a collection so callers never share the backing array.
func Clone(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// Encode serialises the collection as a JSON array. An empty or nil
// collection encodes as "[]".
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("record: encode: %w", err)
	}
	return data, nil
}

// Decode parses a persisted JSON array. Unknown fields are rejected so that
// a blob written by something else is reported instead of silently loaded.
func Decode(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var out []Record
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("record: decode: trailing data after collection")
	}
	if out == nil {
		return nil, fmt.Errorf("record: decode: expected JSON array")
	}

	seen := make(map[int]struct{}, len(out))
	for _, rec := range out {
		if rec.ID <= 0 {
			return nil, fmt.Errorf("record: decode: invalid id %d", rec.ID)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("record: decode: duplicate id %d", rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	return out, nil
}
