package app

import (
	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/specialistvlad/ceresflow/modules/core"
	"github.com/specialistvlad/ceresflow/modules/env_vars"
	"github.com/specialistvlad/ceresflow/modules/http_client"
	"github.com/specialistvlad/ceresflow/modules/mathlib"
	"github.com/specialistvlad/ceresflow/modules/print"
	"github.com/specialistvlad/ceresflow/modules/socketio"
)

// defaultModules returns the modules compiled into the ceresflow binary.
// print writes to the app output.
func (a *App) defaultModules() []registry.Module {
	return []registry.Module{
		&core.Module{},
		&mathlib.Module{},
		&print.Module{Out: a.outW},
		&env_vars.Module{},
		&http_client.Module{},
		&socketio.Module{},
	}
}
