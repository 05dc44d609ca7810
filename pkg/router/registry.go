package router

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Registry is the full route tree as produced by the compiler and loaded
// by the dispatcher. It serializes to a nested JSON object keyed by
// stringified routing keys ("/literal", "/:param"), with method tables at
// the leaves:
//
//	{
//	  "/users": {
//	    "GET": {"filePath": "users/index.go"},
//	    "/:id": {
//	      "GET": {"filePath": "users/[id]/index.go"}
//	    }
//	  }
//	}
//
// Once built, a Registry is immutable and safe for concurrent matching.
type Registry struct {
	root *RouteNode
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: newRouteNode(RoutingKey{})}
}

// Insert adds one (path, method) leaf. Interior nodes are created as
// needed; re-inserting an existing leaf overwrites it.
func (r *Registry) Insert(keys []RoutingKey, method string, ref ResourceRef) error {
	return r.root.insert(keys, method, ref)
}

// Match resolves a request path to its method table and extracted
// parameter bindings. The returned table may be empty or nil when the
// path reaches a purely interior node; callers deciding servability must
// also check the method entry. Params is freshly allocated on every call
// and never aliases caller state.
func (r *Registry) Match(path string) (MethodTable, Params, bool) {
	params := make(Params)
	node, ok := r.root.match(splitPath(path), params)
	if !ok {
		return nil, nil, false
	}
	return node.methods, params, true
}

// Route is one flattened registry entry, used for listings and tests.
type Route struct {
	Path   string
	Method string
	Ref    ResourceRef
}

// Routes returns every registered (path, method) pair, sorted by path
// then method.
func (r *Registry) Routes() []Route {
	var routes []Route
	var walk func(n *RouteNode, prefix string)
	walk = func(n *RouteNode, prefix string) {
		for method, ref := range n.methods {
			p := prefix
			if p == "" {
				p = "/"
			}
			routes = append(routes, Route{Path: p, Method: method, Ref: ref})
		}
		for _, child := range n.children {
			walk(child, prefix+"/"+child.key.Name)
		}
		if n.paramChild != nil {
			walk(n.paramChild, prefix+"/:"+n.paramChild.key.Name)
		}
	}
	walk(r.root, "")
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// MarshalJSON serializes the tree in the registry wire format. Child keys
// and method names share one object per node; encoding/json sorts map
// keys, so compiling an unchanged tree yields byte-identical output.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeToMap(r.root))
}

func nodeToMap(n *RouteNode) map[string]any {
	m := make(map[string]any, len(n.children)+len(n.methods)+1)
	for method, ref := range n.methods {
		m[method] = ref
	}
	for _, child := range n.children {
		m[child.key.String()] = nodeToMap(child)
	}
	if n.paramChild != nil {
		m[n.paramChild.key.String()] = nodeToMap(n.paramChild)
	}
	return m
}

// UnmarshalJSON reconstructs the tree from the wire format. Keys with a
// leading slash are children; everything else is a method entry.
func (r *Registry) UnmarshalJSON(data []byte) error {
	root := newRouteNode(RoutingKey{})
	if err := unmarshalNode(root, data); err != nil {
		return err
	}
	r.root = root
	return nil
}

func unmarshalNode(n *RouteNode, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	// Sort keys so sibling order is stable regardless of input order.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.HasPrefix(k, "/") {
			key, err := ParseKey(k)
			if err != nil {
				return err
			}
			child, err := n.child(key)
			if err != nil {
				return fmt.Errorf("registry key %q: %w", k, err)
			}
			if err := unmarshalNode(child, raw[k]); err != nil {
				return err
			}
			continue
		}

		var ref ResourceRef
		if err := json.Unmarshal(raw[k], &ref); err != nil {
			return fmt.Errorf("registry method %q: %w", k, err)
		}
		if n.methods == nil {
			n.methods = make(MethodTable)
		}
		n.methods[strings.ToUpper(k)] = ref
	}
	return nil
}
