package router

import (
	"fmt"
	"strings"
)

// ResourceRef is an opaque pointer to externally loadable handler code.
// The registry stores references, never code: resolving a ref into an
// invocable handler is the dispatcher's CodeResolver capability.
type ResourceRef struct {
	// FilePath is the entry file path, relative to the handlers root.
	FilePath string `json:"filePath"`
}

// MethodTable maps an HTTP method to the resource serving it. Methods are
// stored uppercased at insertion time.
type MethodTable map[string]ResourceRef

// Lookup finds the resource for a method, tolerating mixed-case tables
// produced by other registry writers. The direct uppercase hit is the
// common path; the scan only runs for foreign registries.
func (t MethodTable) Lookup(method string) (ResourceRef, bool) {
	if t == nil {
		return ResourceRef{}, false
	}
	upper := strings.ToUpper(method)
	if ref, ok := t[upper]; ok {
		return ref, true
	}
	for m, ref := range t {
		if strings.ToUpper(m) == upper {
			return ref, true
		}
	}
	return ResourceRef{}, false
}

// RouteNode is one level of the route tree. A node holds static children,
// at most one dynamic child, and optionally a method table. A node may
// carry both children and methods: a path can be a route and a routing
// prefix at the same time (/users and /users/[id]).
type RouteNode struct {
	key RoutingKey

	// children are static segment children, in first-insertion order.
	children []*RouteNode

	// paramChild is the single dynamic child, if any.
	paramChild *RouteNode

	methods MethodTable
}

func newRouteNode(key RoutingKey) *RouteNode {
	return &RouteNode{key: key}
}

// findChild finds a static child with an exact segment match.
func (n *RouteNode) findChild(segment string) *RouteNode {
	for _, child := range n.children {
		if child.key.Name == segment {
			return child
		}
	}
	return nil
}

// child returns the node for the given key, creating it if missing.
// Inserting a dynamic key when a dynamic sibling with a different
// parameter name already exists is rejected: matching is only
// deterministic with a single dynamic child per node.
func (n *RouteNode) child(key RoutingKey) (*RouteNode, error) {
	if key.IsParam {
		if n.paramChild != nil {
			if n.paramChild.key.Name != key.Name {
				return nil, fmt.Errorf("conflicting dynamic segments [%s] and [%s] under the same parent",
					n.paramChild.key.Name, key.Name)
			}
			return n.paramChild, nil
		}
		n.paramChild = newRouteNode(key)
		return n.paramChild, nil
	}

	if child := n.findChild(key.Name); child != nil {
		return child, nil
	}
	child := newRouteNode(key)
	n.children = append(n.children, child)
	return child, nil
}

// insert walks or creates interior nodes for every key and records the
// method on the terminal node. Re-inserting the same (path, method) is
// last-write-wins.
func (n *RouteNode) insert(keys []RoutingKey, method string, ref ResourceRef) error {
	current := n
	for _, key := range keys {
		next, err := current.child(key)
		if err != nil {
			return err
		}
		current = next
	}
	if current.methods == nil {
		current.methods = make(MethodTable)
	}
	current.methods[strings.ToUpper(method)] = ref
	return nil
}

// match descends segment by segment. Exact static matches always win over
// the dynamic child. There is no backtracking: once the dynamic child is
// taken the decision is final, and a dead end returns no match.
func (n *RouteNode) match(segments []string, params Params) (*RouteNode, bool) {
	current := n
	for _, segment := range segments {
		if child := current.findChild(segment); child != nil {
			current = child
			continue
		}
		if current.paramChild != nil {
			params[current.paramChild.key.Name] = segment
			current = current.paramChild
			continue
		}
		return nil, false
	}
	return current, true
}

// splitPath splits a request path into segments, discarding empty ones so
// that "/a//b/" and "/a/b" are equivalent.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
