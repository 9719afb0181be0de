package geometry

import (
	"log/slog"
	"time"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// Engine runs the curvature pipeline. An Engine without a cache recomputes
// the connection on every call; the zero value is not usable, use NewEngine.
type Engine struct {
	cache  *Cache
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache memoizes Christoffel symbols in c. A cache may be shared by
// several engines.
func WithCache(c *Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the logger used for pipeline stage timings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the engine's cache, or nil.
func (e *Engine) Cache() *Cache { return e.cache }

func (e *Engine) stage(name string, m Metric, start time.Time) {
	e.logger.Debug("geometry stage done",
		"stage", name,
		"dim", m.Dim(),
		"coords", m.coords,
		"elapsed", time.Since(start))
}

var defaultEngine = NewEngine()

// ============================================================
// Package-level API on a cache-less engine
// ============================================================

func Christoffel(m Metric) (*tensor.Array, error)   { return defaultEngine.Christoffel(m) }
func Riemann(m Metric) (*tensor.Array, error)       { return defaultEngine.Riemann(m) }
func RiemannLower(m Metric) (*tensor.Array, error)  { return defaultEngine.RiemannLower(m) }
func Ricci(m Metric) (*tensor.Array, error)         { return defaultEngine.Ricci(m) }
func RicciScalar(m Metric) (symbolic.Expr, error)   { return defaultEngine.RicciScalar(m) }
func Einstein(m Metric) (*tensor.Array, error)      { return defaultEngine.Einstein(m) }
func Weyl(m Metric) (*tensor.Array, error)          { return defaultEngine.Weyl(m) }
func ComputeCurvature(m Metric) (*Curvature, error) { return defaultEngine.Curvature(m) }

// CovariantDerivative is Engine.CovariantDerivative on a cache-less engine.
func CovariantDerivative(m Metric, d DerivativeIndex, t tensor.Tensor) (tensor.Tensor, error) {
	return defaultEngine.CovariantDerivative(m, d, t)
}
