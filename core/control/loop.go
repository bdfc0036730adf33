// Package control drives a plant with a fuzzy controller in a sampling loop.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/fuzzyctl/base/metrics"
	"example.com/fuzzyctl/core/fuzzy"
)

const DefaultHistory = 1000

// Plant is the controlled system. Signals returns a fresh map of the crisp
// controller inputs by variable name, Apply receives the crisp controller
// outputs.
type Plant interface {
	Signals() map[string]float64
	Apply(outputs map[string]float64)
}

// Controller computes crisp outputs from crisp inputs.
type Controller interface {
	Infer(inputs map[string]float64, outputs ...string) (map[string]float64, error)
	Outputs() []string
}

var _ Controller = (*fuzzy.Controller)(nil)

type loopMetrics struct {
	cycles    prometheus.Counter
	undefined prometheus.Counter
	reconfigs prometheus.Counter
	output    *prometheus.GaugeVec
	inferTime prometheus.Histogram
}

func newLoopMetrics(reg prometheus.Registerer) *loopMetrics {
	f := promauto.With(reg)
	return &loopMetrics{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ControlCyclesN,
			Help: metrics.ControlCyclesH,
		}),
		undefined: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ControlUndefinedN,
			Help: metrics.ControlUndefinedH,
		}),
		reconfigs: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ControlReconfigurationN,
			Help: metrics.ControlReconfigurationH,
		}),
		output: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: metrics.ControlOutputN,
			Help: metrics.ControlOutputH,
		}, []string{"variable"}),
		inferTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    metrics.ControlInferenceTimeN,
			Help:    metrics.ControlInferenceTimeH,
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

type Loop struct {
	log      *slog.Logger
	ctrl     Controller
	plant    Plant
	fallback Fallback
	interval time.Duration
	reg      prometheus.Registerer
	capacity int

	m    *loopMetrics
	hist *History
	last map[string]float64
	step int
}

type Option func(l *Loop)

func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) { l.log = log }
}

func WithFallback(f Fallback) Option {
	return func(l *Loop) { l.fallback = f }
}

// WithInterval paces Run with a ticker. Without it cycles run back to back.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

func WithHistory(n int) Option {
	return func(l *Loop) { l.capacity = n }
}

// WithRegisterer registers the loop metrics with reg. Without it the
// metrics are collected but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Loop) { l.reg = reg }
}

func NewLoop(ctrl Controller, plant Plant, opts ...Option) *Loop {
	if ctrl == nil || plant == nil {
		panic("control loop needs a controller and a plant")
	}
	l := &Loop{
		log:      slog.Default(),
		ctrl:     ctrl,
		plant:    plant,
		fallback: FallbackHold,
		capacity: DefaultHistory,
		last:     make(map[string]float64),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.m = newLoopMetrics(l.reg)
	l.hist = NewHistory(l.capacity)
	return l
}

func (l *Loop) History() *History { return l.hist }

// Reconfigure replaces the controller between two cycles.
func (l *Loop) Reconfigure(ctrl Controller) {
	if ctrl == nil {
		panic("nil controller")
	}
	l.ctrl = ctrl
	l.m.reconfigs.Inc()
	l.log.LogAttrs(context.Background(), slog.LevelInfo, "controller reconfigured",
		slog.Int("step", l.step))
}

// Step runs one cycle: read the plant, infer, apply the result or the
// fallback for undefined outputs.
func (l *Loop) Step(ctx context.Context) error {
	in := l.plant.Signals()
	t0 := time.Now()
	out, err := l.ctrl.Infer(in)
	l.m.inferTime.Observe(time.Since(t0).Seconds())
	l.m.cycles.Inc()

	undefined := err != nil
	if err != nil {
		if !errors.Is(err, fuzzy.ErrUndefinedOutput) {
			return fmt.Errorf("inference failed at step %d: %w", l.step, err)
		}
		l.m.undefined.Inc()
		l.log.LogAttrs(ctx, slog.LevelWarn, "undefined controller output",
			slog.Int("step", l.step), slog.String("fallback", string(l.fallback)), slog.Any("error", err))
		if l.fallback == FallbackStop {
			l.hist.Add(Sample{Step: l.step, Inputs: in, Outputs: out, Undefined: true})
			return fmt.Errorf("%w at step %d: %w", ErrStopped, l.step, err)
		}
		if out == nil {
			out = make(map[string]float64)
		}
		for _, name := range l.ctrl.Outputs() {
			if _, ok := out[name]; ok {
				continue
			}
			switch l.fallback {
			case FallbackZero:
				out[name] = 0
			default:
				out[name] = l.last[name]
			}
		}
	}

	l.plant.Apply(out)
	for name, x := range out {
		l.last[name] = x
		l.m.output.WithLabelValues(name).Set(x)
	}
	l.hist.Add(Sample{Step: l.step, Inputs: in, Outputs: out, Undefined: undefined})
	l.log.LogAttrs(ctx, slog.LevelDebug, "control cycle",
		slog.Int("step", l.step), slog.Any("inputs", in), slog.Any("outputs", out))
	l.step++
	return nil
}

// Run executes steps cycles, or cycles until ctx is done if steps <= 0.
func (l *Loop) Run(ctx context.Context, steps int) error {
	var tick <-chan time.Time
	if l.interval > 0 {
		t := time.NewTicker(l.interval)
		defer t.Stop()
		tick = t.C
	}
	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Step(ctx); err != nil {
			return err
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
	return nil
}
