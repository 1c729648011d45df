package cachecodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// decodeFunc reconstructs a concrete value from its JSON payload.
type decodeFunc func(data json.RawMessage) (any, error)

// Registry is the closed allow-list of types that may cross the wire to and
// from a shared cache store. Every decodable type is bound to a stable tag at
// registration time; envelopes carrying any other tag are rejected.
//
// Build the registry once at process start and treat it as immutable:
// registration is not synchronized with Encode/Decode.
type Registry struct {
	decoders map[string]decodeFunc
	tags     map[reflect.Type]string
}

// NewRegistry creates a registry pre-populated with primitive and time types.
// Application transfer objects are added with [Register] or [MustRegister].
func NewRegistry() *Registry {
	r := &Registry{
		decoders: make(map[string]decodeFunc),
		tags:     make(map[reflect.Type]string),
	}

	MustRegister[bool](r, "bool")
	MustRegister[int](r, "int")
	MustRegister[int64](r, "int64")
	MustRegister[float64](r, "float64")
	MustRegister[string](r, "string")
	MustRegister[[]string](r, "strings")
	MustRegister[time.Time](r, "time")
	MustRegister[time.Duration](r, "duration")

	return r
}

// Register binds the concrete type T to a wire tag. The tag must be stable
// across deployments: it is what a running process uses to decode entries
// written by another.
func Register[T any](r *Registry, tag string) error {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return fmt.Errorf("%w: interface types cannot be registered", ErrInvalidType)
	}
	if tag == "" {
		return fmt.Errorf("%w: empty tag", ErrInvalidType)
	}
	if _, exists := r.decoders[tag]; exists {
		return fmt.Errorf("%w: tag %q", ErrDuplicateRegistration, tag)
	}
	if existing, exists := r.tags[typ]; exists {
		return fmt.Errorf("%w: type %s already bound to tag %q", ErrDuplicateRegistration, typ, existing)
	}

	r.decoders[tag] = func(data json.RawMessage) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Join(ErrDecode, err)
		}
		return v, nil
	}
	r.tags[typ] = tag

	return nil
}

// MustRegister is Register that panics on error. Registration happens at
// process start, where a bad binding is a programming error.
func MustRegister[T any](r *Registry, tag string) {
	if err := Register[T](r, tag); err != nil {
		panic(err)
	}
}

// Tags returns the registered wire tags, for introspection.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		tags = append(tags, tag)
	}
	return tags
}
