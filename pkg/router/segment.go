package router

import (
	"fmt"
	"strings"
)

// RoutingKey identifies one level of the route tree. A key is either a
// literal segment, matching exactly one path segment by string equality,
// or a dynamic segment, matching any single path segment and binding its
// raw value to Name.
type RoutingKey struct {
	// Name is the literal segment text, or the parameter name for
	// dynamic keys.
	Name string

	// IsParam indicates a dynamic segment ([id] directories).
	IsParam bool
}

// EncodeSegment converts a directory name into a routing key.
//
// A name entirely wrapped in a single bracket pair denotes a dynamic
// segment: "[id]" → Dynamic("id"). Everything else is a literal, including
// partially bracketed names like "[id" or "a[b]".
func EncodeSegment(dirName string) RoutingKey {
	if len(dirName) >= 2 &&
		strings.HasPrefix(dirName, "[") &&
		strings.HasSuffix(dirName, "]") &&
		!strings.ContainsAny(dirName[1:len(dirName)-1], "[]") {
		return RoutingKey{Name: dirName[1 : len(dirName)-1], IsParam: true}
	}
	return RoutingKey{Name: dirName}
}

// String returns the canonical textual form of the key, which is also the
// persisted registry key format: "/name" for literals, "/:name" for
// dynamic segments. This format is stable across releases; any router
// consuming a compiled registry depends on it byte for byte.
func (k RoutingKey) String() string {
	if k.IsParam {
		return "/:" + k.Name
	}
	return "/" + k.Name
}

// ParseKey parses a persisted registry key back into a routing key.
func ParseKey(s string) (RoutingKey, error) {
	if !strings.HasPrefix(s, "/") {
		return RoutingKey{}, fmt.Errorf("routing key %q missing leading slash", s)
	}
	rest := s[1:]
	if strings.HasPrefix(rest, ":") {
		return RoutingKey{Name: rest[1:], IsParam: true}, nil
	}
	return RoutingKey{Name: rest}, nil
}

// EncodePath encodes a sequence of raw directory names into routing keys.
func EncodePath(segments []string) []RoutingKey {
	keys := make([]RoutingKey, len(segments))
	for i, seg := range segments {
		keys[i] = EncodeSegment(seg)
	}
	return keys
}
