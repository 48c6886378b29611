package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/payload"
)

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("schema: registry is sealed")

// Validator checks the payload shape of one block type.
type Validator interface {
	Validate(style, props payload.Object) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(style, props payload.Object) error

// Validate calls f(style, props).
func (f ValidatorFunc) Validate(style, props payload.Object) error {
	return f(style, props)
}

// RenderInput is what a type renderer sees of one node. Children holds the
// already rendered markup of each child, in order.
type RenderInput struct {
	ID       string
	Type     string
	Style    payload.Object
	Props    payload.Object
	Children []string
}

// RenderFunc renders one node to markup. It must be pure.
type RenderFunc func(in RenderInput) string

// Definition describes one block type.
type Definition struct {
	Name string

	// Container marks types permitted to own children.
	Container bool

	// Validator checks (style, props). Nil accepts any payload.
	Validator Validator

	// Render produces markup. Nil renders the unknown-type placeholder.
	Render RenderFunc
}

// Registry holds block-type definitions.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	sealed bool
}

// NewRegistry returns an empty, unsealed Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a block type. Names must be unique and non-empty.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("schema: block type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("schema: block type %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the definition for a type.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[typ]
	return def, ok
}

// Known reports whether typ is registered.
func (r *Registry) Known(typ string) bool {
	_, ok := r.Lookup(typ)
	return ok
}

// CanHaveChildren reports whether typ is a registered container type.
// Unknown types cannot have children.
func (r *Registry) CanHaveChildren(typ string) bool {
	def, ok := r.Lookup(typ)
	return ok && def.Container
}

// Renderer returns the markup renderer for typ.
func (r *Registry) Renderer(typ string) (RenderFunc, bool) {
	def, ok := r.Lookup(typ)
	if !ok || def.Render == nil {
		return nil, false
	}
	return def.Render, true
}

// Types returns registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a (type, style, props) triple.
// Returns nil, an UNKNOWN_TYPE error or a SCHEMA_VALIDATION error; it never panics
// past the caller.
func (r *Registry) Validate(typ string, style, props payload.Object) error {
	def, ok := r.Lookup(typ)
	if !ok {
		return blockerr.New(blockerr.CodeUnknownType, "unknown block type %q", typ).With("type", typ)
	}
	if def.Validator == nil {
		return nil
	}

	if style == nil {
		style = payload.Object{}
	}
	if props == nil {
		props = payload.Object{}
	}
	if err := def.Validator.Validate(style, props); err != nil {
		var be *blockerr.Error
		if errors.As(err, &be) && be.Code == blockerr.CodeSchemaValidation {
			return be.With("type", typ)
		}
		return blockerr.Wrap(blockerr.CodeSchemaValidation, err, "invalid %s payload", typ).With("type", typ)
	}
	return nil
}
