// ABOUTME: Thread-safe registry of invocable tools keyed by unique name.
// ABOUTME: Dispatch validates input schemas and converts handler failures to text results.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrToolNotFound indicates the named tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrDuplicateTool indicates a tool with the same name is already registered.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrInvalidDefinition indicates a definition is missing required fields.
var ErrInvalidDefinition = errors.New("invalid tool definition")

// Handler executes a tool. It receives the raw JSON arguments, already
// validated against the tool's input schema. Returning an error is allowed;
// Dispatch converts it to a text failure Result.
type Handler func(ctx context.Context, input json.RawMessage) (*Result, error)

// Definition describes one invocable tool.
type Definition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler
}

// registeredTool pairs a definition with its resolved schema.
type registeredTool struct {
	def      *Definition
	resolved *jsonschema.Resolved
}

// Registry maintains the set of registered tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	logger *slog.Logger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*registeredTool),
		logger: logger,
	}
}

// Register validates and stores a tool definition.
// Returns ErrDuplicateTool if the name is already taken. The schema is
// resolved here so a malformed schema fails at startup, not at dispatch.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool '%s' has no handler", ErrInvalidDefinition, def.Name)
	}

	var resolved *jsonschema.Resolved
	if def.InputSchema != nil {
		var err error
		resolved, err = def.InputSchema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("%w: tool '%s' schema: %v", ErrInvalidDefinition, def.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateTool, def.Name)
	}

	r.tools[def.Name] = &registeredTool{def: def, resolved: resolved}

	r.logger.Debug("tool registered", "tool_name", def.Name)
	return nil
}

// RegisterAll registers a slice of definitions, stopping at the first failure.
func (r *Registry) RegisterAll(defs []*Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the definition for a tool name, or nil if not registered.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.tools[name]; ok {
		return t.def
	}
	return nil
}

// List returns all registered definitions sorted by name.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Dispatch validates the arguments and invokes the named tool's handler.
//
// The only returned error is ErrToolNotFound. Every other failure mode -
// schema violation, handler error, handler panic - is reported inside the
// returned Result so the calling agent sees a normal tool response.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (*Result, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrToolNotFound, name)
	}

	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	if t.resolved != nil {
		var instance any
		if err := json.Unmarshal(args, &instance); err != nil {
			return ErrorResult(fmt.Sprintf("argumentos inválidos para '%s': no es JSON válido", name)), nil
		}
		if err := t.resolved.Validate(instance); err != nil {
			r.logger.Debug("tool argument validation failed",
				"tool_name", name,
				"error", err,
			)
			return ErrorResult(fmt.Sprintf("argumentos inválidos para '%s': %v", name, err)), nil
		}
	}

	result, err := r.invoke(ctx, t.def, args)
	if err != nil {
		r.logger.Warn("tool handler failed",
			"tool_name", name,
			"error", err,
		)
		return ErrorResult(fmt.Sprintf("la herramienta '%s' falló: %v", name, err)), nil
	}

	if result == nil || len(result.Content) == 0 {
		// The contract requires at least one content block even on success.
		result = TextResult("")
	}
	return result, nil
}

// invoke runs the handler with panic containment.
func (r *Registry) invoke(ctx context.Context, def *Definition, args json.RawMessage) (result *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked",
				"tool_name", def.Name,
				"panic", rec,
			)
			result = nil
			err = fmt.Errorf("internal handler failure: %v", rec)
		}
	}()

	return def.Handler(ctx, args)
}
