// Package tools defines the callable tool surface exposed to the speech
// runtime: descriptors, arguments, tagged results and the registry that
// dispatches invocations.
package tools

import "context"

// Parameter types understood by the runtime's function declarations.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Param describes one named tool argument.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`

	// Default is applied when the runtime omits the argument. A nil
	// Default with Required false means the handler sees no value.
	Default any `json:"default,omitempty"`

	Required bool `json:"required,omitempty"`
}

// Descriptor is the static declaration of a tool. Descriptors are
// immutable once registered.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Handler executes one invocation. Handlers report every outcome through
// the returned Result and never panic on bad input.
type Handler func(ctx context.Context, args Args) Result

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor

	// Tagged results are prefixed with the persona tag when rendered.
	Tagged bool

	Handler Handler
}

// P is shorthand for a param declaration.
func P(name, typ, description string, def any) Param {
	return Param{Name: name, Type: typ, Description: description, Default: def}
}

// Req is shorthand for a required param declaration.
func Req(name, typ, description string) Param {
	return Param{Name: name, Type: typ, Description: description, Required: true}
}
