package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/fake-localstorage/internal/config"
	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/logger"
	"github.com/pfrederiksen/fake-localstorage/internal/notifier"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
	"github.com/pfrederiksen/fake-localstorage/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagPage    string
	flagURL     string
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fakestorage [script]",
		Short: "Run localStorage calls against an in-memory storage",
		Long: `Run a script of localStorage calls (setItem, getItem, removeItem, clear,
key, length, reset, dump) against an in-memory storage and report the
storage events each call dispatches. The script is read from stdin when
no file is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScript,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file (url, log_level, seed)")
	cmd.Flags().StringVar(&flagPage, "page", "", "HTML page to simulate a window with")
	cmd.Flags().StringVar(&flagURL, "url", "", "URL reported by storage events (overrides config)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// errCallsFailed is returned when at least one script call was rejected
var errCallsFailed = errors.New("script had failing calls")

func runScript(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagURL != "" {
		cfg.URL = flagURL
	}

	level, _ := cfg.Level()
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	env := scope.NewEnvironment(scope.New(scope.DefaultGlobal), scope.New(scope.SharedProcess))
	if flagPage != "" {
		window, err := loadPage(flagPage, cfg.URL)
		if err != nil {
			return err
		}
		env.SetWindow(window)
		href, _ := window.Location()
		logger.Debug("Simulating window", logger.Fields{"page": flagPage, "location": href})
	}

	emitter := notifier.New(env)
	store := storage.NewWithConfig(storage.Config{
		Emitter:     emitter,
		Environment: env,
		URL:         cfg.URL,
	})

	seed := make([]storage.Entry, 0, len(cfg.Seed))
	for _, key := range cfg.SeedKeys() {
		seed = append(seed, storage.Entry{Key: key, Value: cfg.Seed[key]})
	}
	store.Load(seed)
	logger.Debug("Seeded storage", logger.Fields{"keys": store.Length()})

	rec := notifier.NewRecorder(nil)
	emitter.On(rec)
	defer emitter.Clear()

	calls, err := readScript(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	result := run(store, rec, calls)
	logger.SetGauge("storage.keys", float64(store.Length()))
	result.Metrics = logger.GetMetricsSnapshot()
	if href, ok := env.Location(); ok {
		result.URL = href
	} else {
		result.URL = cfg.URL
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if result.ErrorCount > 0 {
		return fmt.Errorf("%w: %d of %d", errCallsFailed, result.ErrorCount, len(result.Steps))
	}
	return nil
}

func loadPage(path, fallback string) (*scope.Scope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	window, err := scope.WindowFromHTML(f, fallback)
	if err != nil {
		return nil, fmt.Errorf("loading page %s: %w", path, err)
	}
	return window, nil
}

func readScript(stdin io.Reader, args []string) ([]Call, error) {
	r := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		r = f
	}

	calls, err := ParseScript(r)
	if err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	return calls, nil
}

// run executes the calls in order, collecting the events each one dispatched
func run(store *storage.Storage, rec *notifier.Recorder, calls []Call) *OutputResult {
	result := &OutputResult{
		RanAt: time.Now().UTC(),
		Steps: make([]*Step, 0, len(calls)),
	}

	for _, call := range calls {
		step := &Step{Line: call.Line, Call: call.Text}

		switch call.Method {
		case cmdReset:
			store.Reset()
		case cmdDump:
			data, err := json.Marshal(store)
			if err != nil {
				step.Error = err.Error()
				break
			}
			step.Result = json.RawMessage(data)
		default:
			res, err := storage.Invoke(store, call.Method, call.Args...)
			if err != nil {
				step.Error = err.Error()
				logger.Debug("Call rejected", logger.Fields{"line": call.Line, "method": call.Method})
			}
			step.Result = res
		}

		step.Events = rec.Drain()
		if step.Events == nil {
			step.Events = []*event.StorageEvent{}
		}
		result.EventCount += len(step.Events)
		if step.Error != "" {
			result.ErrorCount++
		}
		result.Steps = append(result.Steps, step)
	}

	result.Contents = store.Entries()
	return result
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
