// Command demo runs a small job machine on the realtime driver and exposes
// its metrics. The job idles, runs until it is asked to complete, rests and
// starts over.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/bounded"
	"github.com/comalice/tickfsm/internal/config"
	"github.com/comalice/tickfsm/internal/logger"
	"github.com/comalice/tickfsm/internal/production"
	"github.com/comalice/tickfsm/realtime"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dotPath := flag.String("dot", "", "write the observed transition graph (Graphviz DOT) to this file on exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, logger.ParseFormat(cfg.Log.Format))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *dotPath); err != nil {
		log.Error("demo failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, dotPath string) error {
	demoLog := logger.For(log, logger.ComponentDemo)
	name := cfg.Machine.Name

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := production.NewMetrics(reg)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(newLogSpanProcessor(logger.For(log, logger.ComponentMachine))))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			demoLog.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}()

	records := make(chan production.Record[Phase], 64)
	publisher := production.NewChannelPublisher[Phase](name, records)
	visualizer := production.NewVisualizer(name, PhaseIdle)

	opts := []tickfsm.Option[Phase]{
		tickfsm.WithLogger[Phase](logger.For(log, logger.ComponentMachine)),
		tickfsm.WithObserver[Phase](production.NewMetricsObserver[Phase](metrics, name)),
		tickfsm.WithObserver[Phase](production.NewSpanObserver[Phase](tp.Tracer("github.com/comalice/tickfsm"), name)),
		tickfsm.WithObserver[Phase](publisher),
		tickfsm.WithObserver[Phase](visualizer),
	}

	engine, err := newEngine(cfg.Machine, tickfsm.NewZapTracer(logger.For(log, logger.ComponentStates)), opts)
	if err != nil {
		return err
	}

	var job Job
	driver := realtime.NewDriver(engine, &job, realtime.Config{
		Name:     name,
		TickRate: cfg.Machine.TickRate,
		Logger:   logger.For(log, logger.ComponentDriver),
	})

	if err := driver.Start(ctx); err != nil {
		return fmt.Errorf("start driver: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case r, ok := <-records:
				if !ok {
					return nil
				}
				demoLog.Info("machine event",
					zap.String("kind", string(r.Kind)),
					zap.Stringer("from", r.From),
					zap.Stringer("to", r.To),
					zap.Duration("time_in_state", r.TimeInState))
			}
		}
	})

	if cfg.Machine.AutoCompleteAfter > 0 {
		g.Go(func() error {
			autoComplete(gctx, driver, cfg.Machine.AutoCompleteAfter, demoLog)
			return nil
		})
	}

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, reg, logger.For(log, logger.ComponentMetrics))
		})
	}

	err = g.Wait()

	if stopErr := driver.Stop(); stopErr != nil {
		err = errors.Join(err, stopErr)
	}
	_ = publisher.Close()

	var runs int
	driver.Do(func(j *Job) { runs = j.Runs })
	demoLog.Info("demo stopped",
		zap.Uint64("ticks", driver.TickNumber()),
		zap.Uint64("failed_ticks", driver.Failures()),
		zap.Int("runs", runs),
		zap.Uint64("dropped_records", publisher.Dropped()))

	if dotPath != "" {
		if writeErr := os.WriteFile(dotPath, []byte(visualizer.ExportDOT()), 0o644); writeErr != nil {
			err = errors.Join(err, fmt.Errorf("write %s: %w", dotPath, writeErr))
		}
	}
	return err
}

// newEngine builds the engine selected by cfg with idle as initial state.
func newEngine(cfg config.MachineConfig, tracer tickfsm.Tracer, opts []tickfsm.Option[Phase]) (realtime.Engine[Job, Phase], error) {
	idle := &idleState{tickfsm.NewBaseState[Job](PhaseIdle, tracer)}

	if cfg.Bounded {
		m, err := bounded.New[Job, Phase](idle, cfg.MaxStates, cfg.MaxTransitionsPerState, opts...)
		if err != nil {
			return nil, fmt.Errorf("create bounded machine: %w", err)
		}
		if err := register(m, tracer, cfg.IdleTimeout); err != nil {
			return nil, fmt.Errorf("set up bounded machine: %w", err)
		}
		return m, nil
	}

	m := tickfsm.NewMachine[Job, Phase](idle, opts...)
	if err := register(m, tracer, cfg.IdleTimeout); err != nil {
		return nil, fmt.Errorf("set up machine: %w", err)
	}
	return realtime.Dynamic(m), nil
}

// autoComplete asks a running job to complete once it has run for after.
func autoComplete(ctx context.Context, d *realtime.Driver[Job, Phase], after time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(after)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.CurrentState() == PhaseRunning {
				log.Info("requesting completion")
				d.Request(PhaseDone)
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
