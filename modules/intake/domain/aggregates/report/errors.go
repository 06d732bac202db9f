package report

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("report not found")
	ErrReportNumberTaken = errors.New("report number already used in tenant")
)

// StatusTransitionError reports a status move the channel's lifecycle does
// not allow.
type StatusTransitionError struct {
	Channel Channel
	From    Status
	To      Status
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("status transition %s -> %s is not allowed for %s reports", e.From, e.To, e.Channel)
}

// ImmutableFieldsError names the frozen intake fields an update attempted
// to change.
type ImmutableFieldsError struct {
	Fields []string
}

func (e *ImmutableFieldsError) Error() string {
	return fmt.Sprintf("immutable report fields cannot be changed: %v", e.Fields)
}
