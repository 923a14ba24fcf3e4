// Command ls-orbits computes classical orbital elements from state vectors
// and browses them in a terminal UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-orbits/internal/batch"
	"github.com/litescript/ls-orbits/internal/config"
	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/metrics"
	"github.com/litescript/ls-orbits/internal/report"
	"github.com/litescript/ls-orbits/internal/state"
	"github.com/litescript/ls-orbits/internal/ui"
	"github.com/litescript/ls-orbits/internal/version"
)

// options holds flags that are not part of the persistent configuration.
type options struct {
	configPath  string
	ids         string
	epoch       string
	summary     bool
	jsonPath    string
	showVersion bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	fs := flag.NewFlagSet("ls-orbits", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Config file (yaml, toml or json)")
	states := fs.String("states", "", "JSON state file")
	horizonsDir := fs.String("horizons-dir", "", "Directory of saved Horizons VECTORS results (<id>.json|.txt)")
	fs.StringVar(&opts.ids, "ids", "", "Comma-separated NAIF IDs or names to solve")
	fs.StringVar(&opts.epoch, "epoch", "", "Epoch to select from Horizons tables (RFC3339)")
	system := fs.String("system", "", "Planetary system: ID, name or primary (e.g. 5, Jovian, Jupiter)")
	center := fs.String("center", "", "Centre body: NAIF ID or name")
	barycentric := fs.Bool("barycentric", false, "Solve about the system barycentre")
	workers := fs.Int("workers", 0, "Solver worker count")
	simulate := fs.Duration("simulate", 0, "Propagate states by this much before solving (e.g. 720h)")
	step := fs.Duration("step", 0, "Simulation step")
	theta := fs.Float64("theta", 0, "Barnes-Hut opening angle")
	fs.BoolVar(&opts.summary, "summary", false, "Print text summary instead of TUI")
	fs.StringVar(&opts.jsonPath, "json", "", "Export JSON report to file (use - for stdout)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.showVersion {
		fmt.Printf("ls-orbits v%s\n", version.Version)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	// Explicitly set flags override the file and environment.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "states":
			cfg.States = *states
		case "horizons-dir":
			cfg.HorizonsDir = *horizonsDir
		case "system":
			id, err := parseSystem(*system)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
			}
			cfg.System = int(id)
		case "center":
			id, err := parseBody(*center)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
			}
			cfg.Center = int(id)
		case "barycentric":
			cfg.Barycentric = *barycentric
		case "workers":
			cfg.Workers = *workers
		case "simulate":
			cfg.SimDuration = *simulate
		case "step":
			cfg.SimStep = *step
		case "theta":
			cfg.Theta = *theta
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ids, err := parseIDs(opts.ids)
	if err != nil {
		return err
	}
	var epoch time.Time
	if opts.epoch != "" {
		epoch, err = time.Parse(time.RFC3339, opts.epoch)
		if err != nil {
			return fmt.Errorf("invalid -epoch: %w", err)
		}
	}

	level, _ := logging.LookupLevel(cfg.LogLevel)
	logger := logging.New(level)

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, m, logger)
		defer stop()
	}

	headless := opts.summary || opts.jsonPath != "" || !term.IsTerminal(int(os.Stdout.Fd()))
	if !headless {
		// Log lines would tear the alternate screen.
		logger.SetOutput(io.Discard)
	}

	p, err := newPipeline(cfg, ids, epoch, logger, m)
	if err != nil {
		return err
	}

	if headless {
		return runHeadless(ctx, p, opts, logger)
	}
	return runTUI(ctx, p)
}

// runHeadless solves once and writes the requested outputs.
func runHeadless(ctx context.Context, p *pipeline, opts options, logger *logging.Logger) error {
	rep, err := p.run(ctx)
	if err != nil {
		return err
	}
	counts := rep.Counts()
	logger.Info("solved %d bodies about %s: %d solved, %d degenerate, %d invalid, %d unavailable",
		len(rep.Results), rep.CenterName,
		counts[batch.Solved], counts[batch.Degenerate], counts[batch.Invalid], counts[batch.Unavailable])

	if opts.jsonPath != "" {
		if err := writeJSON(opts.jsonPath, rep); err != nil {
			return err
		}
	}

	// Summary is the default when nothing else was asked for.
	if opts.summary || opts.jsonPath == "" {
		report.WriteSummaryTable(os.Stdout, rep, report.Options{Color: report.ColorEnabled(os.Stdout)})
	}
	return nil
}

func writeJSON(path string, rep *batch.Report) error {
	export := report.ExportReport(rep, time.Now().UTC())
	if path == "-" {
		if err := export.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := export.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return nil
}

// runTUI solves once, then hands the state to the browser.
func runTUI(ctx context.Context, p *pipeline) error {
	stateMgr := state.NewManager(state.DefaultConfig())

	start := time.Now()
	rep, err := p.run(ctx)
	stateMgr.Update(rep, time.Since(start), err)

	advance := func() (*batch.Report, error) {
		return p.advance(ctx)
	}

	model := ui.New(stateMgr, advance)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// serveMetrics exposes m on addr until the returned stop func is called.
func serveMetrics(addr string, m *metrics.Metrics, logger *logging.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
