package mapping

import (
	"database/sql"
	"time"
)

// MapViewModels converts a slice of domain entities into view models.
func MapViewModels[T, V any](entities []T, mapFunc func(T) V) []V {
	viewModels := make([]V, len(entities))
	for i, entity := range entities {
		viewModels[i] = mapFunc(entity)
	}
	return viewModels
}

// MapDBModels converts a slice of database rows into domain entities,
// stopping at the first mapping error.
func MapDBModels[T, V any](rows []T, mapFunc func(T) (V, error)) ([]V, error) {
	entities := make([]V, len(rows))
	for i, row := range rows {
		entity, err := mapFunc(row)
		if err != nil {
			return nil, err
		}
		entities[i] = entity
	}
	return entities, nil
}

// Pointer returns a pointer to v.
func Pointer[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func ValueToSQLNullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func ValueToSQLNullTime(v time.Time) sql.NullTime {
	return sql.NullTime{Time: v, Valid: !v.IsZero()}
}

func ValueToSQLNullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func PointerToSQLNullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func PointerToSQLNullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func PointerToSQLNullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// SQLNullStringToPointer returns nil for invalid values.
func SQLNullStringToPointer(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// SQLNullTimeToPointer returns nil for invalid values.
func SQLNullTimeToPointer(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
