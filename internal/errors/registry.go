package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Compile Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryCompile,
		Message:  "Handlers root not readable",
		Detail:   "The handlers directory could not be opened or listed. Compilation cannot proceed without a readable root.",
		DocURL:   "https://fsroute.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryCompile,
		Message:  "Entry file skipped",
		Detail:   "An entry file failed to load or exposes no HTTP method handlers. The file was skipped; other routes compiled normally.",
		DocURL:   "https://fsroute.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryCompile,
		Message:  "Conflicting dynamic segments",
		Detail:   "Two sibling directories declare different dynamic parameters. Matching is only deterministic with a single dynamic segment per branch point.",
		DocURL:   "https://fsroute.dev/docs/errors/E003",
	},

	// ============================================
	// Registry Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryRegistry,
		Message:  "Registry not writable",
		Detail:   "The compiled route registry could not be written to its destination.",
		DocURL:   "https://fsroute.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryRegistry,
		Message:  "Registry not readable",
		Detail:   "The route registry could not be read. Run 'fsroute compile' to produce one.",
		DocURL:   "https://fsroute.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryRegistry,
		Message:  "Registry malformed",
		Detail:   "The route registry is not valid registry JSON. It may have been written by an incompatible tool or truncated mid-write.",
		DocURL:   "https://fsroute.dev/docs/errors/E022",
	},

	// ============================================
	// Config Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryConfig,
		Message:  "No fsroute.json found",
		Detail:   "No project configuration file was found in this directory or any parent.",
		DocURL:   "https://fsroute.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryConfig,
		Message:  "Invalid fsroute.json",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://fsroute.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its valid range.",
		DocURL:   "https://fsroute.dev/docs/errors/E042",
	},

	// ============================================
	// Serve Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryServe,
		Message:  "Server failed to start",
		Detail:   "The HTTP server could not bind its listen address.",
		DocURL:   "https://fsroute.dev/docs/errors/E060",
	},
}
