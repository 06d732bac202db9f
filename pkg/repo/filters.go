package repo

import (
	"fmt"
	"strings"
)

// Filter renders a single comparison against a column. String receives the
// column name and the index of the first positional argument; Value returns
// the arguments the rendered fragment consumes.
type Filter interface {
	Value() []any
	String(column string, startIdx int) string
}

type comparison struct {
	op    string
	value any
}

func (c comparison) Value() []any {
	return []any{c.value}
}

func (c comparison) String(column string, startIdx int) string {
	return fmt.Sprintf("%s %s $%d", column, c.op, startIdx)
}

func Eq(value any) Filter    { return comparison{op: "=", value: value} }
func NotEq(value any) Filter { return comparison{op: "<>", value: value} }
func Gt(value any) Filter    { return comparison{op: ">", value: value} }
func Gte(value any) Filter   { return comparison{op: ">=", value: value} }
func Lt(value any) Filter    { return comparison{op: "<", value: value} }
func Lte(value any) Filter   { return comparison{op: "<=", value: value} }

// Like renders a case-insensitive pattern match.
func Like(pattern string) Filter { return comparison{op: "ILIKE", value: pattern} }

type inFilter struct {
	values []any
}

func (f inFilter) Value() []any {
	return f.values
}

func (f inFilter) String(column string, startIdx int) string {
	if len(f.values) == 0 {
		return "FALSE"
	}
	placeholders := make([]string, len(f.values))
	for i := range f.values {
		placeholders[i] = fmt.Sprintf("$%d", startIdx+i)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

// In matches any of the given values. An empty slice matches nothing.
func In[T any](values []T) Filter {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}
	return inFilter{values: anys}
}

// FieldFilter pairs a typed field with its filter.
type FieldFilter[T ~string] struct {
	Column T
	Filter Filter
}

// SortByField is one ORDER BY term over a typed field.
type SortByField[T ~string] struct {
	Field     T
	Ascending bool
}

// SortBy is an ordered list of sort terms.
type SortBy[T ~string] struct {
	Fields []SortByField[T]
}

// ToSQL renders an ORDER BY clause, resolving fields through the mapping.
// Unknown fields are skipped; an empty result means no valid fields.
func (s SortBy[T]) ToSQL(mapping map[T]string) string {
	terms := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		column, ok := mapping[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if !f.Ascending {
			dir = "DESC"
		}
		terms = append(terms, column+" "+dir)
	}
	if len(terms) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}
