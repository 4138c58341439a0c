package graph

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/basket-engine/internal/solver"
)

// StackBuilder assembles layers into a Stack. Configuration errors surface at
// Build so construction can stay fluent.
type StackBuilder struct {
	order   []string
	nodes   map[string]Layer
	root    string
	backend solver.Backend
	logger  zerolog.Logger
	err     error
}

// NewStackBuilder returns an empty builder using the branch-and-bound backend.
func NewStackBuilder() *StackBuilder {
	return &StackBuilder{
		nodes:   make(map[string]Layer),
		backend: solver.BranchAndBound{},
		logger:  zerolog.Nop(),
	}
}

// WithLogger attaches a logger used for validation warnings.
func (b *StackBuilder) WithLogger(logger zerolog.Logger) *StackBuilder {
	b.logger = logger
	return b
}

// WithBackend swaps the ILP backend.
func (b *StackBuilder) WithBackend(backend solver.Backend) *StackBuilder {
	b.backend = backend
	return b
}

// AddLayer registers a layer. The first layer added becomes the default root.
func (b *StackBuilder) AddLayer(layer Layer) *StackBuilder {
	if b.err != nil {
		return b
	}
	if layer.Key == "" {
		b.err = invalidStack("layer key must not be empty")
		return b
	}
	if _, dup := b.nodes[layer.Key]; dup {
		b.err = invalidStack("duplicate layer %q", layer.Key)
		return b
	}
	b.nodes[layer.Key] = layer
	b.order = append(b.order, layer.Key)
	if b.root == "" {
		b.root = layer.Key
	}
	return b
}

// SetRoot selects the traversal entry point.
func (b *StackBuilder) SetRoot(key string) *StackBuilder {
	if b.err != nil {
		return b
	}
	b.root = key
	return b
}

// Build validates the graph and freezes it into an immutable Stack.
func (b *StackBuilder) Build() (*Stack, error) {
	if b.err != nil {
		return nil, b.err
	}
	warn := func(msg string) { b.logger.Warn().Msg(msg) }
	if err := validate(b.root, b.order, b.nodes, warn); err != nil {
		return nil, err
	}
	nodes := make(map[string]Layer, len(b.nodes))
	for k, v := range b.nodes {
		nodes[k] = v
	}
	return &Stack{
		root:    b.root,
		order:   append([]string(nil), b.order...),
		nodes:   nodes,
		backend: b.backend,
	}, nil
}
