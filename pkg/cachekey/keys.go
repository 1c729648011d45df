package cachekey

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// maxSegmentLen is the longest argument rendering used verbatim.
	// Longer values are replaced by their digest to bound key storage.
	maxSegmentLen = 50

	// maxKeyLen is the longest assembled key. Distributed cache protocols
	// and tier-internal key maps both benefit from a hard upper bound.
	maxKeyLen = 100
)

// safeSegment matches values that can appear in a key verbatim without
// risking separator injection from untrusted input.
var safeSegment = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SortTerm is a single ordering term of a paginated query.
type SortTerm struct {
	Field string
	Desc  bool
}

// Page describes a pagination request. Two semantically identical requests
// always render to the same key segment regardless of where the Page value
// was constructed.
type Page struct {
	Number int
	Size   int
	Sort   []SortTerm
}

func (p Page) render() string {
	var b strings.Builder
	b.WriteString("p")
	b.WriteString(strconv.Itoa(p.Number))
	b.WriteString("_s")
	b.WriteString(strconv.Itoa(p.Size))
	for _, term := range p.Sort {
		b.WriteString("_")
		b.WriteString(sanitize(term.Field))
		if term.Desc {
			b.WriteString("D")
		} else {
			b.WriteString("A")
		}
	}
	return b.String()
}

// Build assembles a deterministic cache key from a namespace-qualified method
// name and its arguments. Arguments matching the safe pattern are rendered
// verbatim; anything else (including oversized values) is replaced by a
// 128-bit hex digest. Keys longer than 100 characters are replaced entirely
// by their digest.
//
// Build is a pure function: identical logical inputs produce byte-identical
// keys across calls and process restarts.
func Build(method string, args ...any) string {
	var b strings.Builder
	b.WriteString(method)
	for _, arg := range args {
		b.WriteString(":")
		b.WriteString(segment(arg))
	}

	key := b.String()
	if len(key) > maxKeyLen {
		return digest(key)
	}
	return key
}

// segment renders a single argument. Unordered collections are normalized
// before rendering so iteration order never leaks into the key.
func segment(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "nil"
	case Page:
		return v.render()
	case *Page:
		if v == nil {
			return "nil"
		}
		return v.render()
	case uuid.UUID:
		return v.String() // canonical form already matches the safe pattern
	case string:
		return sanitize(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return sanitize(strconv.FormatFloat(v, 'g', -1, 64))
	case time.Time:
		return v.UTC().Format("20060102T150405Z0700")
	case []string:
		return sanitize(strings.Join(v, ","))
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(v[k])
		}
		return sanitize(b.String())
	case fmt.Stringer:
		return sanitize(v.String())
	default:
		return sanitize(fmt.Sprintf("%v", v))
	}
}

// sanitize returns the value verbatim when it is safe for key use,
// otherwise its digest.
func sanitize(value string) string {
	if len(value) > 0 && len(value) <= maxSegmentLen && safeSegment.MatchString(value) {
		return value
	}
	return digest(value)
}

// digest renders a 128-bit content hash as hex. Used for key bounding,
// not integrity.
func digest(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
