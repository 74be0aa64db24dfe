package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/formatter"
	"github.com/desertthunder/studyx/internal/metrics"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/services"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/desertthunder/studyx/internal/tasks"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	backend    services.Backend
	injected   services.Backend
	store      *tasks.Store
	registry   *prom.Registry
	recorder   *metrics.Recorder
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Backend    services.Backend // Replaces the REST backend, e.g. in tests
	HTTPClient *http.Client
	Registry   *prom.Registry
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = services.NewHTTPClient(context.Background(), opts.Config.Backend)
	}
	if opts.Registry == nil {
		opts.Registry = prom.NewRegistry()
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Backend.BaseURL, opts.HTTPClient)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		injected:   opts.Backend,
		registry:   opts.Registry,
		recorder:   metrics.NewRecorder(opts.Registry),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.wire()
	return r
}

// wire builds the backend and store from the current logger.
func (r *Runner) wire() {
	backend := r.injected
	if backend == nil {
		backend = services.NewTaskService(r.api, services.TaskServiceOpts{
			TaskPath:     r.config.Backend.TaskPath,
			ProgressPath: r.config.Backend.ProgressPath,
			Recorder:     r.recorder,
			Logger:       r.logger,
		})
	}
	r.backend = backend

	if r.store != nil {
		r.store.Close()
	}
	r.store = tasks.NewStore(backend, tasks.StoreOpts{
		Logger:         r.logger,
		Recorder:       r.recorder,
		MaxConcurrency: r.config.Fetch.MaxConcurrency,
		RateLimit:      r.config.Fetch.RateLimit,
	})
}

// SetLogger replaces the logger and rebuilds the store so its components log through l.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

// Close releases the store's subscriptions.
func (r *Runner) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, taskCommand, progressCommand, apiCommand, watchCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// serveMetrics exposes the runner's registry on addr until ctx is done.
//
// It returns once the listener is bound so callers can report the address.
func (r *Runner) serveMetrics(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(r.registry))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics listener stopped", "error", err)
		}
	}()

	return ln.Addr(), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeRendered(data []byte, path string) error {
	if err := formatter.Write(r.output, path, data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if path != "" {
		r.logger.Info("wrote output", "path", path, "bytes", len(data))
	}
	return nil
}

// parseTaskIDs converts positional arguments to task ids.
func parseTaskIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one task id is required", shared.ErrMissingArgument)
	}

	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: task id %q must be a positive integer", shared.ErrInvalidArgument, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// tasksFor builds placeholder tasks for ids.
func tasksFor(ids []int) []models.Task {
	list := make([]models.Task, len(ids))
	for i, id := range ids {
		list[i] = models.Task{TaskID: id}
	}
	return list
}
