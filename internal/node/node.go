// Package node describes the graph nodes this module exposes to a host.
//
// Nodes are listed in a static registry built at init time. Each Descriptor
// carries the input schema the host uses to build its UI and a Handler that
// runs the node. There is no discovery step: adding a node means adding a
// Descriptor to the list below.
package node

import (
	"fmt"
	"sort"
)

// Host-side type names used in input and output schemas.
const (
	TypeImage        = "IMAGE"
	TypeBackwardFlow = "BACKWARD_FLOW"
	TypeFloat        = "FLOAT"
	TypeChoice       = "CHOICE"
)

// Input declares one required input of a node.
type Input struct {
	Name    string
	Type    string
	Default any
	Min     float64
	Max     float64
	Step    float64
	Choices []string
}

// Args carries named input values to a Handler.
type Args map[string]any

// Handler runs a node and returns its outputs in declaration order.
type Handler func(args Args) ([]any, error)

// Descriptor is a statically registered node.
type Descriptor struct {
	Name        string
	DisplayName string
	Category    string
	Inputs      []Input
	Outputs     []string
	Handler     Handler
}

// Input returns the named input declaration.
func (d Descriptor) Input(name string) (Input, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Call fills missing inputs with their declared defaults and runs the
// handler. Inputs without a default must be present.
func (d Descriptor) Call(args Args) ([]any, error) {
	full := make(Args, len(d.Inputs))
	for _, in := range d.Inputs {
		v, ok := args[in.Name]
		if !ok {
			if in.Default == nil {
				return nil, fmt.Errorf("%s: missing required input %q", d.Name, in.Name)
			}
			v = in.Default
		}
		full[in.Name] = v
	}
	out, err := d.Handler(full)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return out, nil
}

var registry = map[string]Descriptor{}

func register(d Descriptor) {
	if _, dup := registry[d.Name]; dup {
		panic("node: duplicate registration of " + d.Name)
	}
	registry[d.Name] = d
}

// Lookup returns the node registered under name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Registry returns every registered node sorted by name.
func Registry() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DisplayNames maps node names to the labels shown in the host UI.
func DisplayNames() map[string]string {
	names := make(map[string]string, len(registry))
	for name, d := range registry {
		names[name] = d.DisplayName
	}
	return names
}
