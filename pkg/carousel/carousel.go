// Package carousel implements the slide index state machine behind the page
// carousel: wrap-around navigation plus an auto-play ticker.
package carousel

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-portfolio/pkg/clock"
)

// DefaultDelay is the auto-play interval.
const DefaultDelay = 5000 * time.Millisecond

// ErrNoSlides is returned when a slider is built without slides.
var ErrNoSlides = errors.New("carousel: at least one slide is required")

// Slide is one carousel panel.
type Slide struct {
	Title   string `json:"title" yaml:"title"`
	Caption string `json:"caption" yaml:"caption"`
}

// State is a snapshot used by renderers and the JSON API.
type State struct {
	Current  int     `json:"current"`
	Total    int     `json:"total"`
	AutoPlay bool    `json:"autoplay"`
	Delay    string  `json:"delay"`
	DelayMS  int64   `json:"delay_ms"`
	Slides   []Slide `json:"slides"`
	Active   []bool  `json:"active"`
}

// Option configures a Slider.
type Option func(*Slider)

// WithClock swaps the timer source.
func WithClock(c clock.Clock) Option {
	return func(s *Slider) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDelay sets the auto-play interval. Non-positive values are ignored.
func WithDelay(d time.Duration) Option {
	return func(s *Slider) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithAutoPlay sets the initial auto-play flag (default on).
func WithAutoPlay(enabled bool) Option {
	return func(s *Slider) {
		s.autoPlay = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Slider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Slider tracks the current slide and drives auto-play.
//
// A single timer is armed at a time. Every restart bumps a generation
// counter so callbacks from replaced timers are discarded.
type Slider struct {
	clock  clock.Clock
	delay  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	slides   []Slide
	current  int
	autoPlay bool
	timer    clock.Timer
	gen      uint64
	closed   bool
}

// New builds a Slider positioned on the first slide and starts auto-play
// when enabled.
func New(slides []Slide, opts ...Option) (*Slider, error) {
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}
	s := &Slider{
		clock:    clock.Real(),
		delay:    DefaultDelay,
		logger:   slog.Default(),
		slides:   append([]Slide(nil), slides...),
		autoPlay: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}

	s.mu.Lock()
	s.startLocked()
	s.mu.Unlock()
	return s, nil
}

// Next advances one slide, wrapping to the first, and restarts auto-play.
func (s *Slider) Next() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(1)
	s.restartLocked()
	return s.stateLocked()
}

// Prev moves back one slide, wrapping to the last, and restarts auto-play.
func (s *Slider) Prev() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(-1)
	s.restartLocked()
	return s.stateLocked()
}

// GoTo jumps to index i. Out-of-range indices leave the state unchanged and
// do not touch the timer; ok reports whether the jump happened.
func (s *Slider) GoTo(i int) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slides) {
		return s.stateLocked(), false
	}
	s.current = i
	s.restartLocked()
	return s.stateLocked(), true
}

// Toggle flips auto-play.
func (s *Slider) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPlay = !s.autoPlay
	if s.autoPlay {
		s.startLocked()
	} else {
		s.stopLocked()
	}
	s.logger.Debug("carousel autoplay toggled", "autoplay", s.autoPlay)
	return s.stateLocked()
}

// Restart replaces the running auto-play timer. It is a no-op when
// auto-play is off.
func (s *Slider) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartLocked()
}

// State returns the current snapshot.
func (s *Slider) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Close stops the timer. The slider keeps answering State after Close but
// never auto-advances again.
func (s *Slider) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	return nil
}

func (s *Slider) advanceLocked(step int) {
	n := len(s.slides)
	s.current = ((s.current+step)%n + n) % n
}

func (s *Slider) restartLocked() {
	if !s.autoPlay {
		return
	}
	s.stopLocked()
	s.startLocked()
}

func (s *Slider) startLocked() {
	if !s.autoPlay || s.closed {
		return
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.tick(gen) })
}

func (s *Slider) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slider) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.autoPlay || s.closed {
		return
	}
	s.advanceLocked(1)
	s.timer = s.clock.AfterFunc(s.delay, func() { s.tick(gen) })
}

func (s *Slider) stateLocked() State {
	active := make([]bool, len(s.slides))
	active[s.current] = true
	return State{
		Current:  s.current,
		Total:    len(s.slides),
		AutoPlay: s.autoPlay,
		Delay:    s.delay.String(),
		DelayMS:  s.delay.Milliseconds(),
		Slides:   append([]Slide(nil), s.slides...),
		Active:   active,
	}
}
