package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/ceresflow/internal/compiler"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/hotreload"
	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/specialistvlad/ceresflow/internal/variable"
	"github.com/specialistvlad/ceresflow/modules/socketio"
)

// Object is the host object a loaded graph runs on.
type Object struct {
	Name string
	Path string
}

type instance struct {
	*flow.Instance
	object *Object
	source hotreload.Source
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	registry *registry.Registry
	compiler *compiler.Compiler
	reloader *hotreload.Manager
	socket   *socketio.Module
	// game is the root scope global and shared variables bind to.
	game *variable.Scope

	mu         sync.RWMutex
	instances  []*instance
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// With no modules the built-in set is registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		ctx:    ctx,
		config: cfg,
		game:   variable.NewScope("game", nil),
	}
	if len(modules) == 0 {
		modules = a.defaultModules()
	}
	for _, m := range modules {
		if s, ok := m.(*socketio.Module); ok {
			a.socket = s
		}
	}
	a.registry = registry.New().Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	// A mismatch between a descriptor and its node is a programmer error.
	if err := a.registry.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a.compiler = compiler.New(a.registry)
	a.reloader = hotreload.New(a.compiler)
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// GameScope returns the scope global variables live in.
func (a *App) GameScope() *variable.Scope {
	return a.game
}

// Instances returns the loaded graph instances in load order.
func (a *App) Instances() []*flow.Instance {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*flow.Instance, len(a.instances))
	for i, inst := range a.instances {
		out[i] = inst.Instance
	}
	return out
}

func (a *App) instanceNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.instances))
	for i, inst := range a.instances {
		names[i] = inst.object.Name
	}
	return names
}

// Dispatch fires event on every instance and reports how many handled it.
// A failing instance does not stop the others; their errors are joined.
func (a *App) Dispatch(ctx context.Context, event string, args ...any) (int, error) {
	a.mu.RLock()
	instances := append([]*instance(nil), a.instances...)
	a.mu.RUnlock()

	logger := ctxlog.FromContext(ctx)
	handled := 0
	var errs []error
	for _, inst := range instances {
		ok, err := inst.TryExecuteEvent(ctx, event, args...)
		if ok {
			handled++
		}
		if err != nil {
			logger.Error("Event failed.", "event", event, "graph", inst.object.Name, "error", err)
			errs = append(errs, fmt.Errorf("graph %q: %w", inst.object.Name, err))
		}
	}
	logger.Debug("Event dispatched.", "event", event, "handled", handled, "instances", len(instances))
	return handled, errors.Join(errs...)
}
