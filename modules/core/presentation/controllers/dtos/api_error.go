package dtos

// APIError standardizes JSON error responses.
type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
	// Fields carries per-field messages for validation failures.
	Fields map[string]string `json:"fields,omitempty"`
}
