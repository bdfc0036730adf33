package fuzzy

import (
	"errors"
	"fmt"

	"example.com/fuzzyctl/core/defuzzify"
)

var (
	ErrConfiguration = errors.New("invalid controller configuration")
	ErrReference     = errors.New("unknown variable or adjective")

	ErrUndefinedOutput = defuzzify.ErrUndefinedOutput
)

// UndefinedOutputError reports an output variable whose aggregated degree was
// zero everywhere during the last inference cycle.
type UndefinedOutputError struct {
	Variable string
}

func (e *UndefinedOutputError) Error() string {
	return fmt.Sprintf("output %q: %v", e.Variable, ErrUndefinedOutput)
}

func (e *UndefinedOutputError) Unwrap() error {
	return ErrUndefinedOutput
}
