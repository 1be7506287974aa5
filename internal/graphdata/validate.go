package graphdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Problem is a single validation failure.
type Problem struct {
	Field   string
	Message string
}

// ValidationError lists every structural problem found in a graph.
type ValidationError struct {
	Graph    string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph %q is invalid:", e.Graph)
	for _, p := range e.Problems {
		fmt.Fprintf(&sb, " %s: %s;", p.Field, p.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Validate checks the structural rules of d and its sub-graphs: required
// fields, unique node GUIDs, unique variable and sub-graph names.
func Validate(d *FlowGraphData) error {
	if d == nil {
		return &ValidationError{Problems: []Problem{{Field: "graph", Message: "is nil"}}}
	}
	verr := &ValidationError{Graph: d.Name}
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate graph %q: %w", d.Name, err)
		}
		for _, fe := range fieldErrs {
			verr.Problems = append(verr.Problems, Problem{
				Field:   strings.TrimPrefix(fe.Namespace(), "FlowGraphData."),
				Message: message(fe),
			})
		}
	}
	checkUnique(d, "", verr)
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func checkUnique(d *FlowGraphData, prefix string, verr *ValidationError) {
	guids := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		key := n.GUID.String()
		if _, dup := guids[key]; dup {
			verr.Problems = append(verr.Problems, Problem{
				Field:   fmt.Sprintf("%sNodes[%d].GUID", prefix, i),
				Message: fmt.Sprintf("duplicate node GUID %s", key),
			})
		}
		guids[key] = struct{}{}
	}

	names := make(map[string]struct{}, len(d.Variables))
	for i, v := range d.Variables {
		if _, dup := names[v.Name]; dup {
			verr.Problems = append(verr.Problems, Problem{
				Field:   fmt.Sprintf("%sVariables[%d].Name", prefix, i),
				Message: fmt.Sprintf("duplicate variable %q", v.Name),
			})
		}
		names[v.Name] = struct{}{}
	}

	subs := make(map[string]struct{}, len(d.SubGraphs))
	for i, sg := range d.SubGraphs {
		if _, dup := subs[sg.Name]; dup {
			verr.Problems = append(verr.Problems, Problem{
				Field:   fmt.Sprintf("%sSubGraphs[%d].Name", prefix, i),
				Message: fmt.Sprintf("duplicate sub-graph %q", sg.Name),
			})
		}
		subs[sg.Name] = struct{}{}
		if sg.Graph != nil {
			checkUnique(sg.Graph, fmt.Sprintf("%sSubGraphs[%d].Graph.", prefix, i), verr)
		}
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
