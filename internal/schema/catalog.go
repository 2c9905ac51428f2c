package schema

import (
	_ "embed"
	"fmt"

	json "github.com/goccy/go-json"
)

// SequenceType is the action type whose "steps" key nests further actions.
const SequenceType = "sequence"

// Parameter describes one declared parameter of an action type.
type Parameter struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Required       bool     `json:"required"`
	Description    string   `json:"description"`
	Enum           []string `json:"enum,omitempty"`
	CompletionKind string   `json:"completionKind,omitempty"`
}

// ActionType describes one entry of the action catalog.
type ActionType struct {
	Type          string      `json:"type"`
	Description   string      `json:"description"`
	RequiresTrust bool        `json:"requiresTrust"`
	Parameters    []Parameter `json:"parameters"`
}

// Parameter returns the declared parameter with the given name.
func (a *ActionType) Parameter(name string) (*Parameter, bool) {
	for i := range a.Parameters {
		if a.Parameters[i].Name == name {
			return &a.Parameters[i], true
		}
	}
	return nil, false
}

// RequiredParameters returns the subset of parameters marked required.
func (a *ActionType) RequiredParameters() []Parameter {
	var required []Parameter
	for _, p := range a.Parameters {
		if p.Required {
			required = append(required, p)
		}
	}
	return required
}

// AllowsKey reports whether a key is valid on a declaration of this type:
// either a meta key (type, label, description) or a declared parameter.
func (a *ActionType) AllowsKey(key string) bool {
	if IsMetaKey(key) {
		return true
	}
	_, ok := a.Parameter(key)
	return ok
}

// IsMetaKey reports whether key is universally permitted on any action
// declaration without being schema-declared.
func IsMetaKey(key string) bool {
	return key == "type" || key == "label" || key == "description"
}

//go:embed actions.json
var catalogData []byte

// Catalog is the read-only set of known action types.
type Catalog struct {
	types  []ActionType
	byName map[string]*ActionType
}

// Load decodes the embedded action catalog.
func Load() (*Catalog, error) {
	var types []ActionType
	if err := json.Unmarshal(catalogData, &types); err != nil {
		return nil, fmt.Errorf("failed to decode action catalog: %w", err)
	}

	c := &Catalog{
		types:  types,
		byName: make(map[string]*ActionType, len(types)),
	}
	for i := range c.types {
		c.byName[c.types[i].Type] = &c.types[i]
	}
	return c, nil
}

// Lookup returns the action type with the given identifier.
func (c *Catalog) Lookup(name string) (*ActionType, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Has reports whether the identifier names a known action type.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Types returns all catalog entries in declaration order.
func (c *Catalog) Types() []ActionType {
	return c.types
}

// renderParams lists the permitted query parameters per render directive type.
// The directive syntax itself only admits these three types.
var renderParams = map[string][]string{
	"file":    {"path", "line"},
	"command": {"command", "autorun"},
	"diff":    {"path", "with"},
}

// IsRenderType reports whether name is a known render directive type.
func IsRenderType(name string) bool {
	_, ok := renderParams[name]
	return ok
}

// RenderTypes returns the render directive type names.
func RenderTypes() []string {
	return []string{"file", "command", "diff"}
}

// RenderAllowsKey reports whether key is valid on a render directive of the
// given type. Meta keys are permitted the same way they are on action blocks.
func RenderAllowsKey(renderType, key string) bool {
	if IsMetaKey(key) {
		return true
	}
	for _, p := range renderParams[renderType] {
		if p == key {
			return true
		}
	}
	return false
}
