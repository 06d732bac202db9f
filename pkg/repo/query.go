package repo

import (
	"fmt"
	"strings"
)

// Join concatenates non-empty query fragments with single spaces.
func Join(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// JoinWhere builds a WHERE clause from the given conditions joined with AND.
// Returns an empty string when there are no conditions.
func JoinWhere(conditions ...string) string {
	nonEmpty := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(nonEmpty, " AND ")
}

// FormatLimitOffset renders LIMIT/OFFSET, omitting either when zero or
// negative.
func FormatLimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf("OFFSET %d", offset)
	default:
		return ""
	}
}

// Exists wraps a query so it returns a single boolean row.
func Exists(query string) string {
	return fmt.Sprintf("SELECT EXISTS (%s)", query)
}

// CacheKey builds a stable colon-separated cache key from the parts.
func CacheKey(parts ...any) string {
	segments := make([]string, len(parts))
	for i, p := range parts {
		segments[i] = fmt.Sprint(p)
	}
	return strings.Join(segments, ":")
}
