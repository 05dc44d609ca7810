// Package routepath validates and canonicalizes request paths before they
// reach the matcher. Canonicalization is the host server's concern: the
// matcher itself tolerates duplicate slashes, but hostile inputs
// (backslashes, NUL bytes, encoded slashes, root escapes) must be rejected
// before any routing decision is made.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// CanonicalizeResult contains the result of path canonicalization.
type CanonicalizeResult struct {
	// Path is the canonicalized path (without query string).
	Path string

	// Query is the query string (without leading "?").
	Query string

	// Changed indicates if the path was modified during canonicalization.
	Changed bool
}

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in path segment")
)

// CanonicalizePath normalizes a URL path:
//   - removes the trailing slash (except for root "/")
//   - collapses duplicate slashes (/users//4 → /users/4)
//   - drops "." segments
//   - resolves ".." segments
//
// Inputs containing a backslash, a NUL byte (literal or %00), a malformed
// percent escape, or a ".." that would climb above the root are rejected.
// A query string, if present, is preserved untouched.
func CanonicalizePath(input string) (CanonicalizeResult, error) {
	if input == "" {
		return CanonicalizeResult{Path: "/", Changed: true}, nil
	}

	path, query, _ := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return CanonicalizeResult{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return CanonicalizeResult{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return CanonicalizeResult{}, err
		}
	}

	original := path

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	segments := strings.Split(path, "/")
	var result []string

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) > 0 {
				result = result[:len(result)-1]
			} else {
				return CanonicalizeResult{}, ErrPathEscapesRoot
			}
		default:
			result = append(result, seg)
		}
	}

	path = "/" + strings.Join(result, "/")

	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	return CanonicalizeResult{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] == '%' {
			if i+2 >= len(path) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

// isHexDigit returns true if c is a valid hex digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment decodes a single path segment. If decoding produces "/"
// (i.e. %2F was present), this returns an error: an encoded slash inside
// one segment is a path smuggling attempt, since the matcher binds a
// dynamic segment to exactly one raw segment value.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// DecodePathSegments splits a path on "/" and decodes each segment
// individually via DecodeSegment, so an encoded slash in any segment
// fails the whole path.
func DecodePathSegments(path string) ([]string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, nil
	}

	segments := strings.Split(path, "/")
	result := make([]string, 0, len(segments))

	for _, seg := range segments {
		decoded, err := DecodeSegment(seg)
		if err != nil {
			return nil, err
		}
		result = append(result, decoded)
	}

	return result, nil
}

// SplitPathAndQuery splits a path into path and query components.
// The query is returned without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}
