package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// File persists every key in a single JSON object on disk. Each Set rewrites
// the whole document through a temp file + rename so readers never observe a
// partial write. Values are stored as JSON strings and must be valid UTF-8.
//
// An unparseable document makes Get fail with ErrCorrupt. The next Set moves
// it to <path>.corrupt and starts a new document.
type File struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewFile returns a store backed by path. The file is created lazily on the
// first Set; the parent directory is created if missing.
func NewFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("file path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &File{path: path}, nil
}

// Path reports the backing file location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, false, ErrClosed
	}
	doc, err := f.read()
	if err != nil {
		return nil, false, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	doc, err := f.read()
	if errors.Is(err, ErrCorrupt) {
		// keep the unreadable document next to the fresh one
		if err := os.Rename(f.path, f.path+".corrupt"); err != nil {
			return fmt.Errorf("kv: set aside %s: %w", f.path, err)
		}
		doc, err = make(map[string]string), nil
	}
	if err != nil {
		return err
	}
	doc[key] = string(value)
	return f.write(doc)
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("kv: read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]string), nil
	}

	doc := make(map[string]string)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCorrupt, f.path, err)
	}
	return doc, nil
}

func (f *File) write(doc map[string]string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", f.path, err)
	}
	payload = append(payload, '\n')

	if err := atomic.WriteFile(f.path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("kv: write %s: %w", f.path, err)
	}
	return nil
}
