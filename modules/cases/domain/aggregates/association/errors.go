package association

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("association not found")
	ErrDuplicate = errors.New("association already exists")
	ErrRemoved   = errors.New("association has been removed")
)

// LabelKindError reports a label used with a kind it does not belong to.
type LabelKindError struct {
	Kind  Kind
	Label Label
}

func (e *LabelKindError) Error() string {
	return fmt.Sprintf("label %s is not valid for %s associations", e.Label, e.Kind)
}

// ClassificationError reports an operation applied to the wrong side of the
// evidentiary/role split, e.g. ending an evidentiary association.
type ClassificationError struct {
	Label Label
	Op    string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("operation %s is not valid for %s associations", e.Op, e.Label)
}
