// Package hotreload recompiles running graphs when their source changes.
// A Manager polls the save timestamp of every tracked source; Watch turns
// file system events into polls. In-flight traversals finish on the graph
// they started with.
package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
)

// DefaultDebounce is the quiet period Watch waits for after a file event.
const DefaultDebounce = 250 * time.Millisecond

// Source produces graph data together with the time it was last saved.
type Source interface {
	Timestamp() (time.Time, error)
	Load(ctx context.Context) (*graphdata.FlowGraphData, error)
}

// Target is a graph holder that can be recompiled in place.
type Target interface {
	GraphData() *graphdata.FlowGraphData
	SetGraphData(data *graphdata.FlowGraphData)
	Compile(ctx context.Context, c flow.Compiler) error
}

type entry struct {
	target Target
	source Source
	stamp  time.Time
}

// Manager tracks (target, source) pairs.
type Manager struct {
	compiler flow.Compiler
	debounce time.Duration

	mu      sync.Mutex
	entries []*entry
}

// New returns a Manager recompiling with c.
func New(c flow.Compiler) *Manager {
	return &Manager{compiler: c, debounce: DefaultDebounce}
}

// WithDebounce sets the debounce duration used by Watch.
func (m *Manager) WithDebounce(d time.Duration) *Manager {
	m.debounce = d
	return m
}

// Track starts watching src for t. The current timestamp of src is taken as
// the version t already runs.
func (m *Manager) Track(t Target, src Source) error {
	stamp, err := src.Timestamp()
	if err != nil {
		return fmt.Errorf("track %v: %w", src, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &entry{target: t, source: src, stamp: stamp})
	return nil
}

// Len returns the number of tracked pairs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Poll reloads every target whose source has a newer timestamp and returns
// how many were replaced. Failures are logged and skipped; a failed source
// is retried once its timestamp moves again.
func (m *Manager) Poll(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	reloaded := 0
	for _, e := range m.entries {
		stamp, err := e.source.Timestamp()
		if err != nil {
			logger.Warn("Cannot read source timestamp, skipping.", "source", fmt.Sprint(e.source), "error", err)
			continue
		}
		if !stamp.After(e.stamp) {
			continue
		}
		e.stamp = stamp

		data, err := e.source.Load(ctx)
		if err != nil {
			logger.Error("Failed to load changed graph.", "source", fmt.Sprint(e.source), "error", err)
			continue
		}
		previous := e.target.GraphData()
		e.target.SetGraphData(data)
		if err := e.target.Compile(ctx, m.compiler); err != nil {
			e.target.SetGraphData(previous)
			logger.Error("Failed to recompile changed graph, keeping the previous one.", "source", fmt.Sprint(e.source), "error", err)
			continue
		}
		logger.Info("🔄 Graph reloaded.", "source", fmt.Sprint(e.source), "graph", data.Name)
		reloaded++
	}
	return reloaded
}

// Run polls every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Watch polls after writes to any of paths settle. It watches the parent
// directories so files replaced by editors are still seen. It blocks until
// ctx is done.
func (m *Manager) Watch(ctx context.Context, paths []string) error {
	logger := ctxlog.FromContext(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}
	logger.Info("👀 Watching graph files for changes.", "files", len(files), "dirs", len(dirs))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := files[abs]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("Graph file changed.", "path", abs, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(m.debounce, func() { m.Poll(ctx) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
