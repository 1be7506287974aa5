package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/ceresflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// listFlag collects a comma separated list. An empty value is an empty list.
type listFlag struct {
	values []string
	set    bool
}

func (l *listFlag) String() string { return strings.Join(l.values, ",") }

func (l *listFlag) Set(s string) error {
	l.set = true
	l.values = []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			l.values = append(l.values, part)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ceresflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Ceresflow - runs visual scripting flow graphs.

Usage:
  ceresflow [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a single .hcl or .cfpack graph file, or a directory of them.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a YAML configuration file. Flags override its values.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	events := &listFlag{values: app.DefaultEvents}
	flagSet.Var(events, "events", "Comma separated events fired after loading.")
	watchFlag := flagSet.Bool("watch", false, "Reload graph files when they change.")
	pollFlag := flagSet.Duration("poll-interval", 0, "Also poll graph files for changes at this interval. 0 is disabled.")
	socketURLFlag := flagSet.String("socketio-url", "", "socket.io server to receive events from.")
	socketNamespaceFlag := flagSet.String("socketio-namespace", "/", "socket.io namespace.")
	socketEvents := &listFlag{}
	flagSet.Var(socketEvents, "socketio-events", "Comma separated socket.io events forwarded to the graphs.")
	socketInsecureFlag := flagSet.Bool("socketio-insecure", false, "Skip TLS certificate verification for socket.io.")
	packFlag := flagSet.String("pack-out", "", "Write every graph as a packed snapshot into this directory and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	path := ""
	switch {
	case *graphFlag != "":
		path = *graphFlag
	case *gFlag != "":
		path = *gFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	if path != "" {
		explicit["graph"] = true
	}

	cfg := app.Config{
		GraphPath:         path,
		LogFormat:         *logFormatFlag,
		LogLevel:          *logLevelFlag,
		HealthcheckPort:   *healthPortFlag,
		Events:            events.values,
		Watch:             *watchFlag,
		PollInterval:      *pollFlag,
		SocketIOURL:       *socketURLFlag,
		SocketIONamespace: *socketNamespaceFlag,
		SocketIOEvents:    socketEvents.values,
		SocketIOInsecure:  *socketInsecureFlag,
		PackOutput:        *packFlag,
	}
	if *configFlag != "" {
		fc, err := app.LoadFileConfig(*configFlag)
		if err != nil {
			return nil, false, usageError("%s", err.Error())
		}
		if err := fc.ApplyTo(&cfg, explicit); err != nil {
			return nil, false, usageError("config %s: %s", *configFlag, err)
		}
	}

	if cfg.GraphPath == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if cfg.PollInterval < 0 {
		return nil, false, usageError("invalid poll-interval: %s", cfg.PollInterval)
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
