package listflow

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by pipeline operations after Close.
var ErrClosed = errors.New("listflow: pipeline closed")

// ErrInvalidFilterValue indicates a rejected filter change. The
// committed filter state is unchanged; the value never reached the
// cache or the query executor.
type ErrInvalidFilterValue struct {
	Field string
	Value string
}

func (e *ErrInvalidFilterValue) Error() string {
	return fmt.Sprintf("invalid filter value: %s=%q", e.Field, e.Value)
}
