package cache

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry maps namespace names to their policies. It is built once at
// startup and handed to the Manager by value injection; there is no process
// global. Registration is not synchronized: finish building the registry
// before sharing it.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry creates an empty namespace registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register declares a namespace with an explicit policy. Invalid policies
// and duplicate names are rejected; both are startup-fatal conditions.
func (r *Registry) Register(name string, p Policy) error {
	if name == "" {
		return fmt.Errorf("%w: empty namespace name", ErrInvalidPolicy)
	}
	if _, exists := r.policies[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNamespace, name)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("namespace %q: %w", name, err)
	}

	r.policies[name] = p
	return nil
}

// RegisterClass declares a namespace with its volatility class's base policy.
func (r *Registry) RegisterClass(name string, c Class) error {
	return r.Register(name, c.Policy())
}

// Policy returns the namespace's policy, or false if it was never registered.
func (r *Registry) Policy(name string) (Policy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Names returns the registered namespace names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry declares the storefront namespaces grouped by volatility.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	realTime := []string{"adminDashboard", "sellerDashboard", "statistics"}
	volatile := []string{"products", "productSearch", "orders", "inventory"}
	semiStatic := []string{"categories", "brands"}
	slowChanging := []string{"users", "languages", "currencies"}

	for _, name := range realTime {
		if err := r.RegisterClass(name, ClassRealTime); err != nil {
			panic(err)
		}
	}
	for _, name := range volatile {
		if err := r.RegisterClass(name, ClassVolatile); err != nil {
			panic(err)
		}
	}
	for _, name := range semiStatic {
		if err := r.RegisterClass(name, ClassSemiStatic); err != nil {
			panic(err)
		}
	}
	for _, name := range slowChanging {
		if err := r.RegisterClass(name, ClassSlowChanging); err != nil {
			panic(err)
		}
	}

	return r
}

// policyFile is the YAML document shape accepted by LoadRegistry.
type policyFile struct {
	Namespaces map[string]policySpec `yaml:"namespaces"`
}

type policySpec struct {
	Class          string `yaml:"class"`
	LocalTTL       string `yaml:"local_ttl"`
	LocalAccessTTL string `yaml:"local_access_ttl"`
	RemoteTTL      string `yaml:"remote_ttl"`
	MaxEntries     int    `yaml:"max_entries"`
	Remote         *bool  `yaml:"remote"`
}

// LoadRegistry builds a registry from a YAML policy document. Each namespace
// starts from its class's base policy (or the conservative default when no
// class is named) and may override individual fields:
//
//	namespaces:
//	  products:
//	    class: volatile
//	    max_entries: 20000
//	  adminDashboard:
//	    class: real-time
//	    local_ttl: 30s
//	    remote_ttl: 2m
//
// Any validation failure aborts the load: a bad policy file must stop the
// process before it accepts traffic.
func LoadRegistry(src io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("cache: read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}
	if len(file.Namespaces) == 0 {
		return nil, fmt.Errorf("%w: policy file declares no namespaces", ErrInvalidPolicy)
	}

	r := NewRegistry()
	for name, spec := range file.Namespaces {
		p, err := spec.policy()
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", name, err)
		}
		if err := r.Register(name, p); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (s policySpec) policy() (Policy, error) {
	p := defaultPolicy()
	if s.Class != "" {
		c, err := ParseClass(s.Class)
		if err != nil {
			return Policy{}, err
		}
		p = c.Policy()
	}

	if err := overrideDuration(&p.LocalTTL, s.LocalTTL); err != nil {
		return Policy{}, err
	}
	if err := overrideDuration(&p.LocalAccessTTL, s.LocalAccessTTL); err != nil {
		return Policy{}, err
	}
	if err := overrideDuration(&p.RemoteTTL, s.RemoteTTL); err != nil {
		return Policy{}, err
	}
	if s.MaxEntries != 0 {
		p.MaxEntries = s.MaxEntries
	}
	if s.Remote != nil {
		p.Remote = *s.Remote
	}

	return p, nil
}

func overrideDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	*dst = d
	return nil
}
