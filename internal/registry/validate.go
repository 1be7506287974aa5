package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/portaddr"
)

// ValidateRegistry performs a strict parity check between descriptors and
// the nodes they construct, and between functions and their declared arity.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, typeName := range r.NodeTypes() {
		errs = append(errs, validateDescriptor(r.nodes[typeName])...)
	}

	aliases := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if _, ok := r.Node(alias); !ok {
			errs = append(errs, fmt.Sprintf("alias '%s': target '%s' does not resolve to a node type", alias, r.aliases[alias]))
		}
	}

	for key, f := range r.functions {
		if f.Invoke == nil {
			errs = append(errs, fmt.Sprintf("function '%s': no implementation", key))
		}
		if key.Arity != len(f.Params) {
			errs = append(errs, fmt.Sprintf("function '%s': declares %d parameter(s)", key, len(f.Params)))
		}
	}

	for key, p := range r.properties {
		if p.Accessor.Get == nil {
			errs = append(errs, fmt.Sprintf("property '%s': no getter", key))
		}
		if p.Accessor.Set == nil {
			logger.Debug("Property is read-only.", "property", key.String())
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated.", "node_types", len(r.nodes), "functions", len(r.functions), "properties", len(r.properties))
	return nil
}

func validateDescriptor(d *flow.Descriptor) []string {
	var errs []string
	n := d.New()
	if n == nil {
		return []string{fmt.Sprintf("node '%s': constructor returned nil", d.TypeName)}
	}

	seen := make(map[string]struct{}, len(d.Ports))
	hasArrays := false
	for _, spec := range d.Ports {
		if _, dup := seen[spec.Name]; dup {
			errs = append(errs, fmt.Sprintf("node '%s': duplicate port '%s'", d.TypeName, spec.Name))
		}
		seen[spec.Name] = struct{}{}
		if spec.Name == flow.ExecIn {
			errs = append(errs, fmt.Sprintf("node '%s': port name '%s' is reserved", d.TypeName, flow.ExecIn))
		}

		if spec.Array {
			hasArrays = true
			continue
		}
		switch spec.Direction {
		case flow.ExecOut:
			p, err := spec.NodePort(n, portaddr.NoIndex)
			if err != nil || p == nil {
				errs = append(errs, fmt.Sprintf("node '%s': control port '%s' is not reachable", d.TypeName, spec.Name))
			}
		default:
			h, err := spec.Handle(n, portaddr.NoIndex)
			if err != nil || h == nil || reflect.ValueOf(h).IsNil() {
				errs = append(errs, fmt.Sprintf("node '%s': port '%s' is not reachable", d.TypeName, spec.Name))
				continue
			}
			if h.ValueType() != spec.Type {
				errs = append(errs, fmt.Sprintf("node '%s': port '%s' declares %s but holds %s", d.TypeName, spec.Name, spec.Type, h.ValueType()))
			}
		}
	}

	if _, ok := n.(flow.PortArrayNode); hasArrays && !ok {
		errs = append(errs, fmt.Sprintf("node '%s': declares port arrays but cannot allocate them", d.TypeName))
	}

	switch d.Role {
	case flow.RoleEvent:
		if _, ok := n.(flow.EventNode); !ok {
			errs = append(errs, fmt.Sprintf("node '%s': event role requires an EventName method", d.TypeName))
		}
	case flow.RoleFunctionEntry:
		if _, ok := n.(flow.ArgsAcceptor); !ok {
			errs = append(errs, fmt.Sprintf("node '%s': function entry role requires AcceptArgs", d.TypeName))
		}
	}
	return errs
}
