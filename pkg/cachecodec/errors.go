package cachecodec

import "errors"

var (
	// ErrEncode is returned when a value cannot be serialized.
	ErrEncode = errors.New("cachecodec: failed to encode value")

	// ErrDecode is returned when a stored envelope or its payload is malformed.
	// Callers should treat this as a tier miss, not a fatal error.
	ErrDecode = errors.New("cachecodec: failed to decode value")

	// ErrUnregisteredType is returned when encoding a type outside the allow-list.
	ErrUnregisteredType = errors.New("cachecodec: type not registered")

	// ErrUnknownTag is returned when a stored envelope carries a tag outside
	// the allow-list. Decoding fails closed: the payload is never inspected.
	ErrUnknownTag = errors.New("cachecodec: unknown type tag")

	// ErrDuplicateRegistration is returned when a tag or type is registered twice.
	ErrDuplicateRegistration = errors.New("cachecodec: duplicate registration")

	// ErrInvalidType is returned when registering a type that cannot serve as
	// a concrete envelope payload (e.g. an interface type).
	ErrInvalidType = errors.New("cachecodec: invalid type for registration")
)
