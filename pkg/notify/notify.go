// Package notify keeps the transient banners shown after table mutations.
//
// A banner is visible for DisplayDuration, then fades for FadeDuration and is
// removed. The two stages are chained timers; once posted a banner cannot be
// dismissed early.
package notify

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-portfolio/pkg/clock"
)

// Kind distinguishes banners by color only.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
)

// ParseKind maps a string onto a Kind, defaulting to KindInfo.
func ParseKind(raw string) Kind {
	if Kind(raw) == KindSuccess {
		return KindSuccess
	}
	return KindInfo
}

// Stage is the lifecycle position of a banner.
type Stage string

const (
	StageVisible Stage = "visible"
	StageFading  Stage = "fading"
)

const (
	DefaultDisplayDuration = 3000 * time.Millisecond
	DefaultFadeDuration    = 300 * time.Millisecond
)

// Notification is a snapshot of a live banner.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the narrow interface producers depend on.
type Notifier interface {
	Notify(message string, kind Kind) Notification
}

// Option configures a Center.
type Option func(*Center)

// WithClock swaps the timer source.
func WithClock(c clock.Clock) Option {
	return func(center *Center) {
		if c != nil {
			center.clock = c
		}
	}
}

// WithDurations overrides the display and fade durations. Non-positive
// values keep the defaults.
func WithDurations(display, fade time.Duration) Option {
	return func(center *Center) {
		if display > 0 {
			center.display = display
		}
		if fade > 0 {
			center.fade = fade
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(center *Center) {
		if logger != nil {
			center.logger = logger
		}
	}
}

// Center owns the live banners.
type Center struct {
	clock   clock.Clock
	display time.Duration
	fade    time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	active map[string]*Notification
}

var _ Notifier = (*Center)(nil)

// NewCenter builds an empty Center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		clock:   clock.Real(),
		display: DefaultDisplayDuration,
		fade:    DefaultFadeDuration,
		logger:  slog.Default(),
		active:  make(map[string]*Notification),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Notify posts a banner and schedules its dismissal.
func (c *Center) Notify(message string, kind Kind) Notification {
	if kind != KindSuccess {
		kind = KindInfo
	}
	n := &Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		Stage:     StageVisible,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	c.active[n.ID] = n
	snapshot := *n
	c.mu.Unlock()

	c.logger.Debug("notification posted", "id", n.ID, "kind", kind, "message", message)

	id := n.ID
	c.clock.AfterFunc(c.display, func() {
		c.setStage(id, StageFading)
		c.clock.AfterFunc(c.fade, func() {
			c.remove(id)
		})
	})
	return snapshot
}

// Active lists live banners, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, *n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Durations reports the configured display and fade durations.
func (c *Center) Durations() (display, fade time.Duration) {
	return c.display, c.fade
}

func (c *Center) setStage(id string, stage Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.active[id]; ok {
		n.Stage = stage
	}
}

func (c *Center) remove(id string) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
	c.logger.Debug("notification dismissed", "id", id)
}
