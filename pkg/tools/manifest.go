package tools

import "encoding/json"

// FunctionDeclaration is the runtime-facing declaration of one tool.
type FunctionDeclaration struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  *ParamSchema `json:"parameters,omitempty"`
}

// ParamSchema is the JSON schema of a tool's parameters.
type ParamSchema struct {
	Type       string                `json:"type"`
	Properties map[string]*ParamProp `json:"properties"`
	Required   []string              `json:"required,omitempty"`
}

// ParamProp is a single parameter property.
type ParamProp struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Declaration converts a descriptor to its function declaration.
func (d Descriptor) Declaration() FunctionDeclaration {
	fd := FunctionDeclaration{Name: d.Name, Description: d.Description}
	if len(d.Params) == 0 {
		return fd
	}
	schema := &ParamSchema{Type: "object", Properties: make(map[string]*ParamProp, len(d.Params))}
	for _, p := range d.Params {
		schema.Properties[p.Name] = &ParamProp{
			Type:        p.Type,
			Description: p.Description,
			Default:     p.Default,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	fd.Parameters = schema
	return fd
}

// Manifest returns function declarations for every tool in registration
// order.
func (r *Registry) Manifest() []FunctionDeclaration {
	descs := r.Descriptors()
	out := make([]FunctionDeclaration, len(descs))
	for i, d := range descs {
		out[i] = d.Declaration()
	}
	return out
}

// ManifestJSON renders the manifest as indented JSON.
func (r *Registry) ManifestJSON() ([]byte, error) {
	return json.MarshalIndent(r.Manifest(), "", "  ")
}

// Map converts the declaration to a generic map, the form the runtime's
// setup message embeds.
func (fd FunctionDeclaration) Map() map[string]any {
	m := map[string]any{
		"name":        fd.Name,
		"description": fd.Description,
	}
	if fd.Parameters != nil {
		props := make(map[string]any, len(fd.Parameters.Properties))
		for name, p := range fd.Parameters.Properties {
			prop := map[string]any{"type": p.Type}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			props[name] = prop
		}
		params := map[string]any{
			"type":       fd.Parameters.Type,
			"properties": props,
		}
		if len(fd.Parameters.Required) > 0 {
			params["required"] = fd.Parameters.Required
		}
		m["parameters"] = params
	}
	return m
}
