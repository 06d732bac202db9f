package controllers

import (
	"net/http"
)

// NotFound handles requests that match no registered route. The service
// speaks JSON on every path, so there is no HTML fallback.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]string{
			"path": r.URL.Path,
		}
		writeAPIErrorWithMeta(w, r, http.StatusNotFound, "NOT_FOUND", "not found", meta)
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		}
		writeAPIErrorWithMeta(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", meta)
	}
}
