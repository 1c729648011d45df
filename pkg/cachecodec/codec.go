package cachecodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// envelope is the self-describing wire format. The tag carries enough type
// metadata to reconstruct the value without caller-supplied hints, so
// different call sites can decode different types out of the same namespace.
type envelope struct {
	Tag  string          `json:"t"`
	Data json.RawMessage `json:"v"`
}

// Encode serializes a value into a tagged envelope. Only registered types are
// accepted; anything else fails closed with [ErrUnregisteredType].
func (r *Registry) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrEncode)
	}

	tag, ok := r.tags[reflect.TypeOf(v)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnregisteredType, v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	out, err := json.Marshal(envelope{Tag: tag, Data: data})
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return out, nil
}

// Decode reconstructs a value from a tagged envelope. Envelopes carrying a
// tag outside the allow-list are rejected with [ErrUnknownTag] before the
// payload is touched; a shared store reachable by other processes is treated
// as untrusted input.
func (r *Registry) Decode(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if env.Tag == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrDecode)
	}

	decode, ok := r.decoders[env.Tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Tag)
	}

	return decode(env.Data)
}
