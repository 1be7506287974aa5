package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/modules/socketio"
)

// EventDestroy is fired on every instance when the app shuts down.
const EventDestroy = "OnDestroy"

// Run loads the graphs and fires the start events. When the configuration
// asks for it, the app then keeps serving hot reloads and socket.io events
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()
	defer a.dispose()

	if err := a.Load(ctx); err != nil {
		if len(a.Instances()) == 0 {
			return fmt.Errorf("failed to load graphs: %w", err)
		}
		a.logger.Warn("Some graphs failed to load.", "error", err)
	}

	if a.config.PackOutput != "" {
		return a.Pack(ctx, a.config.PackOutput)
	}

	a.logger.Info("🚀 Starting graphs...", "instances", a.instanceNames(), "events", a.config.Events)
	var startErr error
	for _, event := range a.config.Events {
		if _, err := a.Dispatch(ctx, event); err != nil {
			startErr = errors.Join(startErr, fmt.Errorf("event %q: %w", event, err))
		}
	}
	if startErr != nil && !a.config.Serving() {
		return startErr
	}

	if a.config.Serving() {
		if err := a.serve(ctx); err != nil {
			return err
		}
	}

	// ctx may be cancelled by now; OnDestroy still runs to completion.
	if _, err := a.Dispatch(context.WithoutCancel(ctx), EventDestroy); err != nil {
		a.logger.Error("OnDestroy failed.", "error", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return startErr
}

// serve blocks until ctx is done, keeping the reload and socket.io loops
// alive.
func (a *App) serve(ctx context.Context) error {
	var client *socketio.Client
	if a.config.SocketIOURL != "" {
		var err error
		client, err = socketio.Dial(ctx, socketio.Config{
			URL:                a.config.SocketIOURL,
			Namespace:          a.config.SocketIONamespace,
			Events:             a.config.SocketIOEvents,
			InsecureSkipVerify: a.config.SocketIOInsecure,
		}, a.dispatchRemote)
		if err != nil {
			return fmt.Errorf("socket.io: %w", err)
		}
		defer client.Close()
		if a.socket != nil {
			a.socket.Attach(client)
			defer a.socket.Attach(nil)
		}
	}

	var wg sync.WaitGroup
	if a.config.Watch {
		paths := a.sourcePaths()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.reloader.Watch(ctx, paths); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("File watcher stopped.", "error", err)
			}
		}()
	}
	if a.config.PollInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.reloader.Run(ctx, a.config.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Reload poller stopped.", "error", err)
			}
		}()
	}

	a.logger.Info("🎮 Serving graphs, press Ctrl+C to stop.")
	<-ctx.Done()
	wg.Wait()
	return nil
}

func (a *App) dispatchRemote(ctx context.Context, event string, args ...any) error {
	_, err := a.Dispatch(ctx, event, args...)
	return err
}

func (a *App) sourcePaths() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	paths := make([]string, len(a.instances))
	for i, inst := range a.instances {
		paths[i] = inst.object.Path
	}
	return paths
}

func (a *App) dispose() {
	a.mu.Lock()
	instances := a.instances
	a.instances = nil
	a.mu.Unlock()
	for _, inst := range instances {
		inst.Dispose()
	}
	a.game.Dispose()
}
