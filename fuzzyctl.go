// Fuzzy inference controller tool

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mmcloughlin/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/fuzzyctl/base/zaplog"

	"example.com/fuzzyctl/benchmark"

	"example.com/fuzzyctl/core/config"
	"example.com/fuzzyctl/core/control"
	"example.com/fuzzyctl/core/fuzzy"

	"example.com/fuzzyctl/driver/chart"
	"example.com/fuzzyctl/driver/pendulum"
)

const (
	defaultSteps     = 1000
	defaultWorkers   = 1
	defaultRequests  = 100_000
	curveSamples     = 500
	defaultFormat    = string(config.TOML)
	defaultMetricsAt = "127.0.0.1:8080"
)

var (
	log *zap.Logger
)

// valuesFlag collects repeated name=value flags.
type valuesFlag map[string]float64

func (f valuesFlag) String() string {
	var ss []string
	for k, v := range f {
		ss = append(ss, k+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	sort.Strings(ss)
	return strings.Join(ss, ",")
}

func (f valuesFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("invalid value %q, want name=value", s)
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", s, err)
	}
	f[k] = x
	return nil
}

// namesFlag collects repeated name flags.
type namesFlag []string

func (f *namesFlag) String() string { return strings.Join(*f, ",") }

func (f *namesFlag) Set(s string) error {
	*f = append(*f, s)
	return nil
}

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		}),
	))
}

func runMonitor(log *zap.Logger, addr string) {
	http.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, nil)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

// loadConfig returns the built-in pendulum configuration if configFile is
// empty.
func loadConfig(configFile string) (*config.Config, error) {
	if configFile == "" {
		return config.Pendulum(), nil
	}
	return config.Load(configFile)
}

func writeFile(name string, write func(w io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

type simulation struct {
	configFile  string
	steps       int
	interval    time.Duration
	metricsAddr string
	outFile     string
}

func runSimulate(ctx context.Context, w io.Writer, s simulation) error {
	cfg, err := loadConfig(s.configFile)
	if err != nil {
		return err
	}
	ctrl, err := cfg.Build(fuzzy.WithLogger(log))
	if err != nil {
		return err
	}
	fallback, err := control.ParseFallback(cfg.Loop.Fallback)
	if err != nil {
		return err
	}
	p := pendulum.NewCartPole(cfg.Plant.Angle, cfg.Plant.Rate)
	if cfg.Plant.Dt != 0 {
		p.Dt = cfg.Plant.Dt
	}
	hist := cfg.Loop.History
	if hist == 0 {
		hist = control.DefaultHistory
	}

	var reg prometheus.Registerer
	if s.metricsAddr != "" {
		reg = prometheus.DefaultRegisterer
		go runMonitor(log, s.metricsAddr)
	}
	l := control.NewLoop(ctrl, p,
		control.WithLogger(slog.Default()),
		control.WithFallback(fallback),
		control.WithInterval(s.interval),
		control.WithHistory(hist),
		control.WithRegisterer(reg),
	)
	err = l.Run(ctx, s.steps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("simulation finished",
		zap.Float64("time", p.Time),
		zap.Float64("angle", p.State.Theta),
		zap.Float64("rate", p.State.Omega),
		zap.Float64("position", p.State.X),
		zap.Bool("fallen", p.Fallen()),
		zap.Int("undefined", l.History().Undefined()),
	)
	fmt.Fprintf(w, "t=%.3fs angle=%.6f rate=%.6f position=%.4f force=%.4f\n",
		p.Time, p.State.Theta, p.State.Omega, p.State.X, p.Force)
	if m, ok := l.History().Median(pendulum.SignalAngle); ok {
		fmt.Fprintf(w, "median angle over last %d cycles: %.6f\n", l.History().Len(), m)
	}

	if s.outFile != "" {
		return writeFile(s.outFile, func(w io.Writer) error {
			return chart.Trajectory(w, l.History(), p.Dt,
				pendulum.SignalAngle, pendulum.SignalRate, pendulum.ActionForce)
		})
	}
	return nil
}

func runInfer(w io.Writer, configFile string, inputs map[string]float64, outputs []string, verbose bool) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	ctrl, err := cfg.Build(fuzzy.WithLogger(log))
	if err != nil {
		return err
	}
	res, err := ctrl.Infer(inputs, outputs...)
	if err != nil && !errors.Is(err, fuzzy.ErrUndefinedOutput) {
		return err
	}
	names := outputs
	if len(names) == 0 {
		names = ctrl.Outputs()
	}
	for _, name := range names {
		x, ok := res[name]
		if !ok {
			fmt.Fprintf(w, "%s undefined\n", name)
			continue
		}
		fmt.Fprintf(w, "%s %v\n", name, x)
		if verbose {
			s, _ := ctrl.Strengths(name)
			adjs := make([]string, 0, len(s))
			for a := range s {
				adjs = append(adjs, a)
			}
			slices.Sort(adjs)
			for _, a := range adjs {
				if s[a] != 0 {
					fmt.Fprintf(w, "  %s.%s %v\n", name, a, s[a])
				}
			}
		}
	}
	if err != nil {
		log.Warn("undefined controller output", zap.Error(err))
	}
	return nil
}

func runPlot(configFile, variable, outFile string, inputs map[string]float64) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	ctrl, err := cfg.Build(fuzzy.WithLogger(log))
	if err != nil {
		return err
	}
	v, ok := ctrl.Variable(variable)
	if !ok {
		return fmt.Errorf("%w: variable %q", fuzzy.ErrReference, variable)
	}
	if v.Role == fuzzy.RoleOutput && len(inputs) != 0 {
		res, err := ctrl.Infer(inputs, variable)
		if err != nil {
			return err
		}
		xs, ys, err := ctrl.Aggregated(variable)
		if err != nil {
			return err
		}
		return writeFile(outFile, func(w io.Writer) error {
			return chart.Aggregated(w, variable, xs, ys, res[variable])
		})
	}
	cs, err := ctrl.Curves(variable, curveSamples)
	if err != nil {
		return err
	}
	return writeFile(outFile, func(w io.Writer) error {
		return chart.Curves(w, variable, cs)
	})
}

func runBenchmark(w io.Writer, configFile string, workers, requests int, withProfile bool) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if withProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	s, err := benchmark.RunInferenceBenchmark(w, func() (*fuzzy.Controller, error) {
		return cfg.Build()
	}, workers, requests)
	if err != nil {
		return err
	}
	log.Info("benchmark finished",
		zap.Int64("count", s.Count),
		zap.Int64("undefined", s.Undefined),
		zap.Float64("mean_ns", s.Mean),
		zap.Int64("p50_ns", s.P50),
		zap.Int64("p99_ns", s.P99),
		zap.Int64("max_ns", s.Max),
		zap.Duration("elapsed", s.Elapsed),
	)
	return nil
}

func runConfig(w io.Writer, configFile, format string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if _, err := cfg.Build(); err != nil {
		return err
	}
	return cfg.Encode(w, config.Format(format))
}

func exitWithUsage() {
	fmt.Println("usage: fuzzyctl simulate|infer|plot|benchmark|config [flags]")
	os.Exit(1)
}

func main() {
	var (
		verbose     bool
		configFile  string
		steps       int
		interval    time.Duration
		metricsAddr string
		outFile     string
		variable    string
		workers     int
		requests    int
		withProfile bool
		format      string
		inputs      = valuesFlag{}
		outputs     namesFlag
	)

	simulateFlags := flag.NewFlagSet("simulate", flag.ExitOnError)
	inferFlags := flag.NewFlagSet("infer", flag.ExitOnError)
	plotFlags := flag.NewFlagSet("plot", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)
	configFlags := flag.NewFlagSet("config", flag.ExitOnError)

	simulateFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	simulateFlags.StringVar(&configFile, "config", "", "Config file")
	simulateFlags.IntVar(&steps, "steps", defaultSteps, "Number of control cycles, 0 to run until interrupted")
	simulateFlags.DurationVar(&interval, "interval", 0, "Control cycle period")
	simulateFlags.StringVar(&metricsAddr, "metrics", "", "Metrics address, e.g. "+defaultMetricsAt)
	simulateFlags.StringVar(&outFile, "out", "", "Trajectory PDF file")

	inferFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	inferFlags.StringVar(&configFile, "config", "", "Config file")
	inferFlags.Var(inputs, "input", "Input value as name=value, repeatable")
	inferFlags.Var(&outputs, "output", "Output variable, repeatable")

	plotFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	plotFlags.StringVar(&configFile, "config", "", "Config file")
	plotFlags.StringVar(&variable, "variable", "", "Variable to plot")
	plotFlags.StringVar(&outFile, "out", "", "PDF file")
	plotFlags.Var(inputs, "input", "Input value as name=value to plot an output's aggregated set, repeatable")

	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	benchmarkFlags.StringVar(&configFile, "config", "", "Config file")
	benchmarkFlags.IntVar(&workers, "workers", defaultWorkers, "Number of goroutines")
	benchmarkFlags.IntVar(&requests, "requests", defaultRequests, "Inference cycles per goroutine")
	benchmarkFlags.BoolVar(&withProfile, "profile", false, "Write a CPU profile")

	configFlags.StringVar(&configFile, "config", "", "Config file")
	configFlags.StringVar(&format, "format", defaultFormat, "Output format, toml or yaml")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case simulateFlags.Name():
		err := simulateFlags.Parse(os.Args[2:])
		if err != nil || simulateFlags.NArg() != 0 || steps < 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = runSimulate(ctx, os.Stdout, simulation{
			configFile:  configFile,
			steps:       steps,
			interval:    interval,
			metricsAddr: metricsAddr,
			outFile:     outFile,
		})
		if err != nil {
			log.Fatal("simulation failed", zap.Error(err))
		}
	case inferFlags.Name():
		err := inferFlags.Parse(os.Args[2:])
		if err != nil || inferFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		err = runInfer(os.Stdout, configFile, inputs, outputs, verbose)
		if err != nil {
			log.Fatal("inference failed", zap.Error(err))
		}
	case plotFlags.Name():
		err := plotFlags.Parse(os.Args[2:])
		if err != nil || plotFlags.NArg() != 0 {
			exitWithUsage()
		}
		if variable == "" || outFile == "" {
			exitWithUsage()
		}
		initLogger(verbose)
		err = runPlot(configFile, variable, outFile, inputs)
		if err != nil {
			log.Fatal("failed to plot", zap.Error(err))
		}
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		if workers <= 0 || requests <= 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		err = runBenchmark(os.Stdout, configFile, workers, requests, withProfile)
		if err != nil {
			log.Fatal("benchmark failed", zap.Error(err))
		}
	case configFlags.Name():
		err := configFlags.Parse(os.Args[2:])
		if err != nil || configFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(false /* verbose */)
		err = runConfig(os.Stdout, configFile, format)
		if err != nil {
			log.Fatal("invalid configuration", zap.Error(err))
		}
	case "x":
		runX()
	default:
		exitWithUsage()
	}
}
