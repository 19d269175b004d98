package recordstore

import (
	"log/slog"

	"github.com/goliatone/go-portfolio/pkg/record"
)

// DefaultKey is the persistence key holding the serialised collection.
const DefaultKey = "portfolioTableData"

// CorruptPolicy decides what Load does when the stored blob cannot be decoded.
type CorruptPolicy string

const (
	// CorruptFail surfaces ErrCorruptData and leaves memory and storage untouched.
	CorruptFail CorruptPolicy = "fail"
	// CorruptReseed logs a warning, replaces the blob with the seed set and continues.
	CorruptReseed CorruptPolicy = "reseed"
)

// ParseCorruptPolicy maps configuration strings onto a policy. Empty input
// yields CorruptFail.
func ParseCorruptPolicy(raw string) (CorruptPolicy, bool) {
	switch CorruptPolicy(raw) {
	case "", CorruptFail:
		return CorruptFail, true
	case CorruptReseed:
		return CorruptReseed, true
	default:
		return "", false
	}
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the persistence key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSeed replaces the default first-run collection.
func WithSeed(seed []record.Record) Option {
	return func(s *Store) {
		s.seed = record.Clone(seed)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCorruptPolicy selects how Load treats undecodable data.
func WithCorruptPolicy(policy CorruptPolicy) Option {
	return func(s *Store) {
		if policy != "" {
			s.policy = policy
		}
	}
}
