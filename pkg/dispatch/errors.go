package dispatch

// Error is the wire shape returned when dispatch fails before a handler
// runs. It marshals to the JSON envelope clients key off of:
//
//	{"success": false, "code": "NOT_FOUND", "error": "...", "status": 404}
//
// Handler errors are never wrapped in this type; they propagate to the
// caller verbatim.
type Error struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"status"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Dispatch failure codes.
const (
	CodeNotAllowed = "NOT_ALLOWED"
	CodeNotFound   = "NOT_FOUND"
)

// NotAllowed returns the failure for a method outside the whitelist.
func NotAllowed(method string) *Error {
	return &Error{
		Success: false,
		Code:    CodeNotAllowed,
		Message: "method " + method + " is not allowed",
		Status:  405,
	}
}

// NotFound returns the failure for a path or method with no registered
// resource. The same shape is used whether the path missed entirely,
// the method table had no entry, or the resource could not be resolved;
// callers cannot distinguish the three, which keeps probing uninformative.
func NotFound(method, path string) *Error {
	return &Error{
		Success: false,
		Code:    CodeNotFound,
		Message: "no resource for " + method + " " + path,
		Status:  404,
	}
}
