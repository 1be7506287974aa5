package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/ceresflow/internal/codec"
	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/fsutil"
	"github.com/specialistvlad/ceresflow/internal/graphdata"
	"github.com/specialistvlad/ceresflow/internal/hclgraph"
	"github.com/specialistvlad/ceresflow/internal/hotreload"
)

// GraphExtension is the extension of HCL graph files.
const GraphExtension = ".hcl"

func sourceFor(path string) hotreload.Source {
	if strings.HasSuffix(path, codec.Extension) {
		return codec.FileSource{Path: path}
	}
	return hclgraph.FileSource{Path: path}
}

// Load reads every graph file under the configured path, compiles one
// instance per file and tracks it for hot reload. Files that fail are
// reported together; the others stay loaded.
func (a *App) Load(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graphs...", "graph_path", a.config.GraphPath)

	paths, err := fsutil.FindFilesByExtension(a.config.GraphPath, GraphExtension, codec.Extension)
	if err != nil {
		return fmt.Errorf("failed to find graph files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no graph files found in %s", a.config.GraphPath)
	}

	var errs []error
	for _, path := range paths {
		if err := a.loadFile(ctx, path); err != nil {
			logger.Error("Failed to load graph.", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	logger.Info("Graphs loaded successfully.", "loaded", len(a.Instances()), "failed", len(errs))
	return errors.Join(errs...)
}

func (a *App) loadFile(ctx context.Context, path string) error {
	src := sourceFor(path)
	data, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if err := a.declareGlobals(data); err != nil {
		return fmt.Errorf("graph %s: %w", path, err)
	}

	obj := &Object{Name: data.Name, Path: path}
	inst := flow.NewInstance(obj, data, a.game)
	if err := inst.Compile(ctx, a.compiler); err != nil {
		return fmt.Errorf("graph %s: %w", path, err)
	}
	if err := a.reloader.Track(inst, src); err != nil {
		return err
	}

	a.mu.Lock()
	a.instances = append(a.instances, &instance{Instance: inst, object: obj, source: src})
	a.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Graph instance ready.", "graph", data.Name, "path", path, "events", inst.FlowGraph().Events())
	return nil
}

// declareGlobals adds the global and shared variables of data to the game
// scope. The first declaration of a name wins; later ones must agree on its
// type.
func (a *App) declareGlobals(data *graphdata.FlowGraphData) error {
	for _, decl := range data.Variables {
		if !decl.Global && !decl.Shared {
			continue
		}
		factory, ok := a.registry.VariableType(decl.Type)
		if !ok {
			return fmt.Errorf("variable %q has unknown type %q", decl.Name, decl.Type)
		}
		v, err := factory(decl.Name, decl.Default, 0)
		if err != nil {
			return fmt.Errorf("variable %q: %w", decl.Name, err)
		}
		if existing, ok := a.game.Get(decl.Name); ok {
			if existing.ValueType() != v.ValueType() {
				return fmt.Errorf("variable %q is declared as %s and %s", decl.Name, existing.ValueType(), v.ValueType())
			}
			continue
		}
		if err := a.game.Add(v); err != nil {
			return err
		}
	}
	return nil
}

// Pack writes the data of every loaded graph into dir as packed snapshots.
func (a *App) Pack(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	a.mu.RLock()
	instances := append([]*instance(nil), a.instances...)
	a.mu.RUnlock()

	for _, inst := range instances {
		base := strings.TrimSuffix(filepath.Base(inst.object.Path), filepath.Ext(inst.object.Path))
		out := filepath.Join(dir, base+codec.Extension)
		if err := codec.WriteFile(out, inst.GraphData()); err != nil {
			return fmt.Errorf("pack graph %q: %w", inst.object.Name, err)
		}
		ctxlog.FromContext(ctx).Info("📦 Graph packed.", "graph", inst.object.Name, "path", out)
	}
	return nil
}
