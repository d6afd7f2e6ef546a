package experiment

import (
	"fmt"
	"sort"

	"github.com/CJiaLin/heat/internal/paths"
	"github.com/CJiaLin/heat/internal/python"
	"github.com/CJiaLin/heat/types"
	"github.com/rs/zerolog/log"
)

// Handler defines the interface every experiment kind implements. A kind
// knows which Python script it drives, which artifact (if any) marks a task
// done, and how to turn a parameter tuple into a typed invocation.
type Handler interface {
	// Kind returns the canonical identifier used in heat.yml's 'kind' field
	// (e.g. "train", "evaluate-nc").
	Kind() string

	// Validate checks kind-specific constraints of a stage against the
	// global config. It returns a slice of error messages, accumulated into
	// the config validation report.
	Validate(stage *types.Stage, cfg *types.SweepConfig) []string

	// SkipArtifact returns the path whose existence makes a task a no-op,
	// or "" when the kind must always run (evaluation kinds append per-seed
	// rows to a shared CSV, so a prior run leaves no per-task artifact).
	SkipArtifact(layout *paths.Layout, b paths.Binding) string

	// BuildInvocation constructs the external-program invocation for one
	// decoded task.
	BuildInvocation(cfg *types.SweepConfig, stage *types.Stage, b paths.Binding, tp paths.TaskPaths) *python.Invocation
}

// Registry holds the registered experiment handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates a new, empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// DefaultRegistry returns a registry with every built-in kind registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&TrainHandler{})
	r.Register(&EvaluateNCHandler{})
	r.Register(&EvaluateLPHandler{})
	r.Register(&EvaluateReconstructionHandler{})
	return r
}

// Register adds a Handler to the registry. It panics if a handler with the
// same kind is already registered (an initialization error).
func (r *Registry) Register(handler Handler) {
	kind := handler.Kind()
	if _, exists := r.handlers[kind]; exists {
		panic(fmt.Sprintf("handler for kind %q already registered", kind))
	}
	r.handlers[kind] = handler
	log.Debug().Str("kind", kind).Msg("Registered experiment handler")
}

// Get retrieves a handler by kind. Returns the handler and true if found,
// otherwise nil and false.
func (r *Registry) Get(kind string) (Handler, bool) {
	handler, exists := r.handlers[kind]
	return handler, exists
}

// MustGet retrieves a handler by kind and panics if it is not registered.
// For internal paths where validation already guaranteed existence.
func (r *Registry) MustGet(kind string) Handler {
	handler, exists := r.Get(kind)
	if !exists {
		panic(fmt.Sprintf("critical error: no handler registered for kind %q", kind))
	}
	return handler
}

// IsKnownKind checks whether a handler is registered for the given kind.
func (r *Registry) IsKnownKind(kind string) bool {
	_, exists := r.Get(kind)
	return exists
}

// RegisteredKinds returns a sorted list of known kind names.
func (r *Registry) RegisteredKinds() []string {
	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
