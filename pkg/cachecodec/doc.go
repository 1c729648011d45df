// Package cachecodec serializes cache values for storage in a shared,
// network-reachable store.
//
// Values travel as a self-describing envelope: a wire tag plus a JSON
// payload. The tag is resolved against a closed, explicitly enumerated
// [Registry] of decodable types: primitives, date/time types, and whatever
// application transfer objects the process registers at startup:
//
//	reg := cachecodec.NewRegistry()
//	cachecodec.MustRegister[ProductResponse](reg, "product")
//	cachecodec.MustRegister[CategoryResponse](reg, "category")
//
//	data, err := reg.Encode(product)
//	val, err := reg.Decode(data) // val is a ProductResponse
//
// Decoding fails closed: an envelope carrying an unknown tag is rejected
// without inspecting its payload. A compromised peer or a stale deployment
// writing to the same store cannot make this process instantiate an
// arbitrary type. Decode failures are recoverable: callers treat
// them as a miss on that tier and fall through to the next one.
package cachecodec
