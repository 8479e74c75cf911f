package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

const (
	// ClassificationLabel names and labels the synthesized classification
	// widget.
	ClassificationLabel = "classification scores"
	// DefaultTopClasses bounds how many classification entries are shown.
	DefaultTopClasses = 5
)

// WarningFunc receives non-fatal translation diagnostics.
type WarningFunc func(model.Warning)

// Policy is the translation policy for one schema dialect. A Policy holds no
// per-call state; the same instance classifies every schema of its dialect.
type Policy struct {
	dialect             pkgopenapi.Dialect
	sniffer             MediaSniffer
	classificationLabel string
	topClasses          int
	warn                WarningFunc
}

// PolicyOption customises a Policy.
type PolicyOption func(*Policy)

// WithSniffer replaces the media sniffing strategy.
func WithSniffer(sniffer MediaSniffer) PolicyOption {
	return func(p *Policy) {
		if sniffer != nil {
			p.sniffer = sniffer
		}
	}
}

// WithWarningFunc registers a sink for translation warnings.
func WithWarningFunc(fn WarningFunc) PolicyOption {
	return func(p *Policy) {
		p.warn = fn
	}
}

// WithTopClasses bounds how many classification entries renderers display.
func WithTopClasses(n int) PolicyOption {
	return func(p *Policy) {
		if n > 0 {
			p.topClasses = n
		}
	}
}

// NewPolicy constructs the policy for dialect.
func NewPolicy(dialect pkgopenapi.Dialect, options ...PolicyOption) *Policy {
	p := &Policy{
		dialect:             dialect,
		sniffer:             NewDescriptionSniffer(),
		classificationLabel: ClassificationLabel,
		topClasses:          DefaultTopClasses,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Dialect reports the schema dialect the policy was built for.
func (p *Policy) Dialect() pkgopenapi.Dialect {
	return p.dialect
}

func (p *Policy) emit(w model.Warning) {
	if p.warn != nil {
		p.warn(w)
	}
}

// Factory builds a Policy for a dialect.
type Factory func(options ...PolicyOption) *Policy

// Registry maps schema dialects onto policy factories. Dialects not
// registered cannot be translated.
type Registry struct {
	mu        sync.RWMutex
	factories map[pkgopenapi.Dialect]Factory
}

// NewRegistry constructs a registry with the built-in dialects registered.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[pkgopenapi.Dialect]Factory)}
	reg.registerBuiltins()
	return reg
}

// Register installs or replaces the factory for dialect.
func (r *Registry) Register(dialect pkgopenapi.Dialect, factory Factory) {
	if r == nil || factory == nil {
		return
	}
	trimmed := pkgopenapi.Dialect(strings.TrimSpace(string(dialect)))
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[trimmed] = factory
}

// Policy builds the policy for dialect.
func (r *Registry) Policy(dialect pkgopenapi.Dialect, options ...PolicyOption) (*Policy, error) {
	if r == nil {
		return nil, fmt.Errorf("widgets: registry is nil")
	}
	r.mu.RLock()
	factory, ok := r.factories[dialect]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("widgets: no policy registered for dialect %q (have %s)", dialect, strings.Join(r.Dialects(), ", "))
	}
	return factory(options...), nil
}

// Dialects lists the registered dialects in sorted order.
func (r *Registry) Dialects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for dialect := range r.factories {
		out = append(out, string(dialect))
	}
	sort.Strings(out)
	return out
}

func (r *Registry) registerBuiltins() {
	for _, dialect := range []pkgopenapi.Dialect{pkgopenapi.DialectSwagger2, pkgopenapi.DialectOpenAPI3} {
		dialect := dialect
		r.Register(dialect, func(options ...PolicyOption) *Policy {
			return NewPolicy(dialect, options...)
		})
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// PolicyFor builds the policy for dialect from the shared default registry.
func PolicyFor(dialect pkgopenapi.Dialect, options ...PolicyOption) (*Policy, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry.Policy(dialect, options...)
}
