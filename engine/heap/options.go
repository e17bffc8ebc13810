package heap

import (
	"log/slog"

	"github.com/luchsj/vcEngine/engine/debug"
)

// Option configures a Heap at creation.
type Option func(*config)

type config struct {
	tracer  *debug.Tracer
	classes SizeClassConfig
	log     *slog.Logger
}

// WithTracer attaches an existing tracer. The heap takes ownership and
// closes it on Destroy.
func WithTracer(t *debug.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithTracing makes the heap build its own tracer from opts. Start from
// debug.DefaultTracerOptions so the heap's own frame is skipped.
func WithTracing(opts debug.TracerOptions) Option {
	return func(c *config) { c.tracer = debug.NewTracer(opts) }
}

// WithSizeClasses selects the free-list size class strategy.
func WithSizeClasses(sc SizeClassConfig) Option {
	return func(c *config) { c.classes = sc }
}

// WithLogger sets the logger for allocator diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}
