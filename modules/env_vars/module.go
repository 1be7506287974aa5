// Package env_vars exposes the process environment as functions.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/ceresflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// All returns the process environment as a map.
func All(context.Context) (map[string]string, error) {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap, nil
}

// Get returns one variable, or an empty string when it is not set.
func Get(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// Register registers the Env functions.
func (m *Module) Register(r *registry.Registry) {
	registry.Func0(r, "Env", "All", All)
	registry.Func1(r, "Env", "Get", Get)
}
