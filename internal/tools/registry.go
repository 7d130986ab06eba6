package tools

import (
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
)

// Registry is the tool catalog. Iteration follows registration order.
type Registry struct {
	mu    sync.RWMutex
	ops   map[string]*Operation
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string]*Operation),
	}
}

// NewDefaultRegistry returns the catalog of every analysis operation minus
// the tools matching any of the disabled patterns.
func NewDefaultRegistry(disabled []string) (*Registry, error) {
	r := NewRegistry()
	for _, op := range Operations() {
		if err := r.Register(op); err != nil {
			return nil, err
		}
	}
	if _, err := r.Disable(disabled); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Register(op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("tool already registered: %s", op.Name)
	}

	r.ops[op.Name] = &op
	r.order = append(r.order, op.Name)
	return nil
}

// Disable removes every tool whose name matches one of the glob patterns and
// returns the removed names.
func (r *Registry) Disable(patterns []string) ([]string, error) {
	if err := ValidatePatterns(patterns); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	kept := r.order[:0]
	for _, name := range r.order {
		if matchAny(patterns, name) {
			delete(r.ops, name)
			removed = append(removed, name)
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	return removed, nil
}

func (r *Registry) Get(name string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

func (r *Registry) List() []*Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Operation, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.ops[name])
	}
	return result
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Descriptors returns the catalog as advertised by tools/list.
func (r *Registry) Descriptors() []protocol.Tool {
	ops := r.List()
	descriptors := make([]protocol.Tool, 0, len(ops))
	for _, op := range ops {
		descriptors = append(descriptors, protocol.Tool{
			Name:        op.Name,
			Title:       op.Title,
			Description: op.Description,
			InputSchema: op.Shape.Schema(),
			Annotations: ReadOnlyAnnotations(),
		})
	}
	return descriptors
}

// ValidatePatterns reports the first malformed glob pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid tool pattern %q", p)
		}
	}
	return nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
