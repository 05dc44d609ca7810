package router

// Params holds dynamic-segment values extracted during a match, keyed by
// parameter name. Every match produces a fresh map; merging with bindings
// the caller already holds is an explicit step via MergeParams rather than
// a hidden mutation of shared request state.
type Params map[string]string

// Get returns the value bound to name, or "".
func (p Params) Get(name string) string {
	return p[name]
}

// MergeParams combines two binding sets into a new map. Values in extra
// win on key collision; neither input is modified.
func MergeParams(base, extra Params) Params {
	merged := make(Params, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
