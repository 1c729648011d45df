// Package cachekey builds deterministic, collision-resistant cache keys from
// call parameters.
//
// Keys are assembled as "method:arg1:arg2:...". Each argument is rendered by
// type: pagination descriptors ([Page]) become "p<N>_s<N>[_<field>A|D]*" so
// that equal pagination requests always share a key, UUIDs use their
// canonical form, and free-form strings are used verbatim only when they
// match a safe alphanumeric pattern of at most 50 characters. Anything else
// (a search keyword containing the segment delimiter, an oversized value,
// an arbitrary struct) is replaced by a 128-bit hex digest, which both
// bounds key length and neutralizes separator injection from untrusted
// input. Assembled keys over 100 characters are replaced entirely by their
// digest.
//
//	key := cachekey.Build("products.search", keyword, cachekey.Page{
//	    Number: 0,
//	    Size:   20,
//	    Sort:   []cachekey.SortTerm{{Field: "price"}},
//	})
//
// [Build] is pure: no object identity, no map iteration order, no process
// state feeds the result.
package cachekey
