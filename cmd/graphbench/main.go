package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/graphbench/pkg/config"
	"github.com/ritzau/graphbench/pkg/logging"
	"github.com/ritzau/graphbench/pkg/metrics"
	"github.com/ritzau/graphbench/pkg/output"
	"github.com/ritzau/graphbench/pkg/runner"
	"github.com/ritzau/graphbench/pkg/watcher"
	"github.com/ritzau/graphbench/pkg/web"
)

// Exit codes. exitRun covers a failed load and a distances file that
// could not be written.
const (
	exitOK       = 0
	exitMismatch = 1
	exitUsage    = 2
	exitRun      = 3
)

func main() {
	flags := pflag.NewFlagSet("graphbench", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: graphbench [flags] [edge-list]\n\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	if cfg.WebMode || cfg.Watch {
		code = serve(ctx, flags, cfg)
	} else {
		code = runOnce(ctx, cfg)
	}
	stop()
	os.Exit(code)
}

// loadConfig layers the config sources and takes the input from the first
// positional argument when no other source set it.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if cfg.Input == "" && flags.NArg() > 0 {
		cfg.Input = flags.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	// stdout carries the report
	logging.SetOutput(os.Stderr, level)
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	}
}

func runOnce(ctx context.Context, cfg *config.Config) int {
	r := runner.New(cfg)
	report, err := execute(ctx, r, cfg, "command line")
	if err != nil {
		return exitRun
	}
	if report.Failed() {
		return exitMismatch
	}
	return exitOK
}

// execute runs once and prints the report. The distances file is written
// when configured.
func execute(ctx context.Context, r *runner.Runner, cfg *config.Config, reason string) (*runner.Report, error) {
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	report, err := r.Run(ctx, reason)
	if err != nil {
		logging.ErrorContext(ctx, "run failed", "error", err)
		return nil, err
	}
	output.PrintReport(os.Stdout, report)

	if cfg.DistancesOut != "" && report.Distances != nil {
		if err := writeDistances(cfg.DistancesOut, report.Distances); err != nil {
			logging.ErrorContext(ctx, "failed to write distances", "path", cfg.DistancesOut, "error", err)
			return report, err
		}
		logging.InfoContext(ctx, "wrote distances", "path", cfg.DistancesOut, "vertices", len(report.Distances))
	}
	return report, nil
}

func writeDistances(path string, dist map[int64]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := output.WriteDistances(f, dist); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// serve keeps running: reruns come from the web trigger and the file
// watcher, and are executed one at a time on this goroutine.
func serve(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config) int {
	reg := metrics.NewRegistry()
	opts := []runner.Option{runner.WithRecorder(reg)}

	var server *web.Server
	if cfg.WebMode {
		server = web.NewServer(reg.Handler())
		opts = append(opts, runner.WithObserver(server.ObserveStatus))
	}
	r := runner.New(cfg, opts...)

	requests := make(chan string, 1)
	var reload atomic.Bool
	trigger := func(reason string) bool {
		select {
		case requests <- reason:
			return true
		default:
			return false
		}
	}
	trigger("initial run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if server != nil {
		server.SetTrigger(trigger)
		go func() {
			if err := server.Start(ctx, cfg.Port); err != nil {
				logging.Error("web server failed", "error", err)
				cancel()
			}
		}()
	}

	if cfg.Watch {
		if err := watch(ctx, cfg, func(a *watcher.ChangeAnalysis) {
			if a.NeedConfigReload {
				reload.Store(true)
			}
			if a.NeedRerun && !trigger(fmt.Sprintf("%d file(s) changed", len(a.ChangedFiles))) {
				logging.Debug("rerun already queued")
			}
		}); err != nil {
			logging.Error("failed to start watcher", "error", err)
			return exitRun
		}
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("shutting down")
			return exitOK

		case reason := <-requests:
			if reload.Swap(false) {
				if next, err := loadConfig(flags); err != nil {
					logging.Warn("keeping previous config", "error", err)
				} else {
					if next.Input != cfg.Input {
						logging.Warn("input path changed; the watcher still follows the old file", "old", cfg.Input, "new", next.Input)
					}
					cfg = next
					r.SetConfig(cfg)
					logging.Info("config reloaded")
				}
			}

			report, _ := execute(ctx, r, cfg, reason)
			if report != nil && server != nil {
				server.SetReport(report)
			}
		}
	}
}

func watch(ctx context.Context, cfg *config.Config, onChange func(*watcher.ChangeAnalysis)) error {
	fw, err := watcher.NewFileWatcher(cfg.Input, config.FileName)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	d := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	d.Start(ctx)

	go func() {
		for ev := range d.Output() {
			analysis := watcher.AnalyzeChanges(ev)
			logging.Info("change detected", "type", ev.Type.String(), "files", len(ev.Paths))
			onChange(analysis)
		}
	}()
	return nil
}
