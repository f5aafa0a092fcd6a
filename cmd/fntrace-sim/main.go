// Package main provides the fntrace-sim CLI, which runs function pipelines
// through fntrace and exports the resulting traces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/fntrace/cmd/fntrace-sim/engine"
	"github.com/arloliu/fntrace/cmd/fntrace-sim/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	mode := os.Args[1]
	switch mode {
	case "quick":
		runQuickMode(os.Args[2:])
	case "run":
		runContinuousMode(os.Args[2:])
	case "list":
		listPipelines()
	case "-h", "--help", "help":
		printUsage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`fntrace-sim - traced function pipeline simulator

Usage:
  fntrace-sim <mode> [flags]

Modes:
  quick   Run a pipeline a number of times
  run     Run a pipeline at a steady rate
  list    List available pipelines

Common Flags:
  --config        Telemetry config file (YAML/JSON)
  --endpoint      OTLP endpoint (default: localhost:4317)
  --http          Use OTLP over HTTP instead of gRPC
  --insecure      Skip TLS verification (default: true)
  --exporter      otlp, console or none (default: otlp)
  --propagators   Propagators written next to B3 (default: tracecontext,baggage)
  --pipeline      Pipeline name (default: uppercase)
  --pipeline-file Custom YAML pipeline
  --transport     inproc or http (default: inproc)
  --payload       Input payload (default: "hello world")
  --logs          Export logs
  --metrics       Export metrics
  --service-name  Service name (default: fntrace-sim)

Quick Mode Flags:
  --count         Number of runs (default: 10)
  --concurrency   Runs in flight (default: 1)

Continuous Mode Flags:
  --duration      Total simulation time (default: 1m)
  --rate          Runs per second (default: 1)
  --jitter        Step delay variation percentage (default: 20)

Environment Variables:
  FNTRACE_CONFIG                Telemetry config file
  OTEL_EXPORTER_OTLP_ENDPOINT   OTLP endpoint
  OTEL_EXPORTER_OTLP_INSECURE   Skip TLS verification
  OTEL_TRACES_EXPORTER          Exporter
  OTEL_PROPAGATORS              Propagators
  OTEL_SERVICE_NAME             Service name

Examples:
  fntrace-sim quick --pipeline text --count 5 --exporter console
  fntrace-sim quick --pipeline flaky --count 100 --concurrency 8
  fntrace-sim run --pipeline text --transport http --duration 5m --rate 10
  fntrace-sim list`)
}

func runQuickMode(args []string) {
	cfg := newConfig()
	fs := flag.NewFlagSet("quick", flag.ExitOnError)
	cfg.bindCommonFlags(fs)
	fs.IntVar(&cfg.Count, "count", cfg.Count, "Number of runs")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Runs in flight")

	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return
	}

	cfg.applyEnvOverrides()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := executeQuick(ctx, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runContinuousMode(args []string) {
	cfg := newConfig()
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg.bindCommonFlags(fs)

	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Total simulation time")
	fs.Float64Var(&cfg.Rate, "rate", cfg.Rate, "Runs per second")
	fs.IntVar(&cfg.Jitter, "jitter", cfg.Jitter, "Step delay variation percentage")

	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return
	}

	cfg.applyEnvOverrides()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := executeContinuous(ctx, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listPipelines() {
	fmt.Println("Available pipelines:")
	fmt.Println()
	for _, name := range pipeline.List() {
		p, _ := pipeline.Get(name)
		fmt.Printf("  %-10s %s\n", p.Name, p.Description)
		for _, s := range p.Steps {
			fmt.Printf("             - %s (%s)\n", s.Function, opName(s.Op))
		}
	}
}

func opName(op pipeline.Op) string {
	if op == "" {
		return string(pipeline.OpEcho)
	}

	return string(op)
}

// executeQuick runs the pipeline cfg.Count times.
func executeQuick(ctx context.Context, cfg *Config) error {
	eng, runner, err := prepare(ctx, cfg, 0)
	if err != nil {
		return err
	}
	defer shutdown(eng, runner)

	fmt.Printf("Running %s %d times (concurrency %d, transport %s)\n",
		cfg.pipelineName(), cfg.Count, cfg.Concurrency, cfg.Transport)

	stats, err := runner.RunBatch(ctx, cfg.Count, cfg.Concurrency, []byte(cfg.Payload))
	if err != nil {
		fmt.Printf("\nInterrupted after %d runs\n", stats.Runs)
		return nil
	}
	fmt.Printf("Done: %d runs, %d failed\n", stats.Runs, stats.Failures)

	return nil
}

// executeContinuous runs the pipeline at a steady rate for a duration.
func executeContinuous(ctx context.Context, cfg *Config) error {
	if cfg.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", cfg.Rate)
	}

	eng, runner, err := prepare(ctx, cfg, cfg.Jitter)
	if err != nil {
		return err
	}
	defer shutdown(eng, runner)

	fmt.Printf("Running %s for %v at %.1f runs/sec\n", cfg.pipelineName(), cfg.Duration, cfg.Rate)

	interval := time.Duration(float64(time.Second) / cfg.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.Now().Add(cfg.Duration)
	runs, failures := 0, 0

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\nInterrupted after %d runs (%d failed)\n", runs, failures)
			return nil
		case <-ticker.C:
			if time.Now().After(deadline) {
				fmt.Printf("\nCompleted: %d runs, %d failed\n", runs, failures)
				return nil
			}

			runs++
			if res, err := runner.Run(ctx, []byte(cfg.Payload)); err != nil {
				failures++
				_, _ = fmt.Fprintf(os.Stderr, "Warning: run failed at %s: %v\n", res.Failed, err)
			}
		}
	}
}

func prepare(ctx context.Context, cfg *Config, jitter int) (*engine.Engine, *engine.Runner, error) {
	p, err := loadPipeline(cfg)
	if err != nil {
		return nil, nil, err
	}
	tc, err := cfg.telemetry()
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(ctx, engine.Config{Telemetry: tc, JitterPct: jitter})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}
	runner, err := eng.Runner(p, engine.Transport(cfg.Transport))
	if err != nil {
		_ = eng.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to prepare pipeline: %w", err)
	}

	return eng, runner, nil
}

func shutdown(eng *engine.Engine, runner *engine.Runner) {
	if err := runner.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to flush telemetry: %v\n", err)
	}
}

func (c *Config) pipelineName() string {
	if c.PipelineFile != "" {
		return c.PipelineFile
	}

	return c.Pipeline
}

func loadPipeline(cfg *Config) (*pipeline.Pipeline, error) {
	if cfg.PipelineFile != "" {
		return pipeline.LoadFromFile(cfg.PipelineFile)
	}

	p, ok := pipeline.Get(cfg.Pipeline)
	if !ok {
		return nil, fmt.Errorf("unknown pipeline: %s (use 'fntrace-sim list' to see available pipelines)", cfg.Pipeline)
	}

	return p, nil
}
