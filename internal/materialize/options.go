// options.go - Driver timing, step sizing and retry bounds.
package materialize

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ExhaustionPolicy selects what happens when a retry bound is hit.
type ExhaustionPolicy string

const (
	// ExhaustPartial finalizes with what was collected and clears Complete.
	ExhaustPartial ExhaustionPolicy = "partial"
	// ExhaustFail stops without finalizing and reports ErrExhausted.
	ExhaustFail ExhaustionPolicy = "fail"
)

// Default timings mirror what the host framework needs to re-render.
const (
	DefaultSettleDelay       = time.Second
	DefaultRetryDelay        = 500 * time.Millisecond
	DefaultDeferDelay        = 500 * time.Millisecond
	DefaultRestartDelay      = 500 * time.Millisecond
	DefaultGapScrollBack     = 500.0
	DefaultRowsPerStep       = 20
	DefaultFallbackRowHeight = 42.0
	DefaultMaxGapRetries     = 25
	DefaultMaxDeferrals      = 120
)

// Options configures a Driver. Zero fields take the defaults above, except
// MaxDuration where zero means unbounded.
type Options struct {
	SettleDelay   time.Duration
	RetryDelay    time.Duration
	DeferDelay    time.Duration
	RestartDelay  time.Duration
	GapScrollBack float64
	RowsPerStep   int
	// FallbackRowHeight is used when the measured row height is zero.
	FallbackRowHeight float64
	// MaxGapRetries bounds consecutive corrective scrolls. Negative disables.
	MaxGapRetries int
	// MaxDeferrals bounds consecutive deferrals. Negative disables.
	MaxDeferrals int
	MaxDuration  time.Duration
	OnExhausted  ExhaustionPolicy
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.DeferDelay <= 0 {
		o.DeferDelay = DefaultDeferDelay
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = DefaultRestartDelay
	}
	if o.GapScrollBack <= 0 {
		o.GapScrollBack = DefaultGapScrollBack
	}
	if o.RowsPerStep <= 0 {
		o.RowsPerStep = DefaultRowsPerStep
	}
	if o.FallbackRowHeight <= 0 {
		o.FallbackRowHeight = DefaultFallbackRowHeight
	}
	if o.MaxGapRetries == 0 {
		o.MaxGapRetries = DefaultMaxGapRetries
	}
	if o.MaxDeferrals == 0 {
		o.MaxDeferrals = DefaultMaxDeferrals
	}
	if o.OnExhausted == "" {
		o.OnExhausted = ExhaustPartial
	}
	return o
}

// Validate checks option consistency after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.RetryDelay >= o.SettleDelay {
		return fmt.Errorf("retry delay %s must be shorter than settle delay %s", o.RetryDelay, o.SettleDelay)
	}
	if o.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative, got %s", o.MaxDuration)
	}
	switch o.OnExhausted {
	case ExhaustPartial, ExhaustFail:
	default:
		return fmt.Errorf("exhaustion policy must be partial or fail, got %q", o.OnExhausted)
	}
	return nil
}

// deps holds collaborators set through Option.
type deps struct {
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// Option customizes a Driver or Controller.
type Option func(*deps)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(d *deps) { d.recorder = r }
}

// WithTracer sets the tracer used for the per-session span.
func WithTracer(t trace.Tracer) Option {
	return func(d *deps) { d.tracer = t }
}

func buildDeps(opts []Option) deps {
	d := deps{}
	for _, opt := range opts {
		opt(&d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.recorder == nil {
		d.recorder = nopRecorder{}
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer("gridmat")
	}
	return d
}
