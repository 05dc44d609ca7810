// Package dispatch executes requests against a compiled route registry.
//
// A Dispatcher runs a fixed pipeline: the request method is checked
// against a whitelist, the path is matched in the registry, the matched
// resource reference is resolved to a handler, and the handler is
// invoked. Pipeline failures return *Error with a stable code and HTTP
// status; handler results and handler errors pass through verbatim.
//
//	reg, _ := dispatch.LoadRegistry(ctx, registry.NewFileStore("routes.json"))
//
//	fm := dispatch.FuncMap{}
//	fm.Register("users/[id]/index.go", getUser)
//
//	d, _ := dispatch.New(dispatch.Config{Registry: reg, Resolver: fm})
//	result, err := d.Dispatch(ctx, &dispatch.Request{Method: "GET", Path: "/users/42"})
package dispatch
