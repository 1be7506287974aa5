package hclgraph

import "github.com/hashicorp/hcl/v2"

// fileRoot is the body of a graph file or of a function block.
type fileRoot struct {
	Name        string             `hcl:"name,optional"`
	SavedAt     int64              `hcl:"saved_at,optional"`
	Variables   []*variableBlock   `hcl:"variable,block"`
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
	Functions   []*functionBlock   `hcl:"function,block"`
}

type variableBlock struct {
	Name    string         `hcl:"name,label"`
	Type    string         `hcl:"type"`
	Default hcl.Expression `hcl:"default,optional"`
	Shared  bool           `hcl:"shared,optional"`
	Global  bool           `hcl:"global,optional"`
	Exposed bool           `hcl:"exposed,optional"`
}

type nodeBlock struct {
	GUID       string         `hcl:"guid,label"`
	Type       string         `hcl:"type"`
	Position   []float64      `hcl:"position,optional"`
	Arrays     map[string]int `hcl:"arrays,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
	Inputs     []*inputBlock  `hcl:"input,block"`
}

type inputBlock struct {
	Port  string         `hcl:"port,label"`
	Index *int           `hcl:"index,optional"`
	Value hcl.Expression `hcl:"value"`
}

type connectionBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type functionBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}
