// Package engine runs the phase simulation: it draws weighted actions for
// every living participant, resolves deaths and produces narrated events.
//
// An Engine holds no game state of its own. Every call takes the
// *models.GameSession it operates on, so independent sessions can run side by
// side as long as each session is advanced by one caller at a time.
package engine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/content"
)

var (
	// ErrNoSelectableAction means every eligible action had zero weight.
	ErrNoSelectableAction = errors.New("no selectable action: total weight is zero")

	// ErrGameOver is returned when stepping a session with at most one survivor.
	ErrGameOver = errors.New("game is over")
)

type Engine struct {
	lib      *content.Library
	rng      Rand
	handlers Handlers
	namer    Namer
	decay    bool
	log      zerolog.Logger
	resolver *Resolver
}

type Option func(*Engine)

// WithRand sets the random source. Tests use it to pin outcomes.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithHandlers(h Handlers) Option {
	return func(e *Engine) { e.handlers = h }
}

func WithNamer(n Namer) Option {
	return func(e *Engine) { e.namer = n }
}

// WithoutDecay disables repetition decay, so a template may repeat within a phase.
func WithoutDecay() Option {
	return func(e *Engine) { e.decay = false }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine over a content library.
func NewEngine(lib *content.Library, opts ...Option) *Engine {
	e := &Engine{
		lib:      lib,
		handlers: DefaultHandlers(),
		namer:    TransformNamer{},
		decay:    true,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewRand(time.Now().UnixNano())
	}
	e.resolver = NewResolver(lib, e.rng)
	return e
}

// Library returns the content the engine draws from.
func (e *Engine) Library() *content.Library {
	return e.lib
}
