package screening

import (
	"errors"
	"fmt"
	"strings"
)

// CallerInputError reports a missing or empty required input. It is returned
// before any provider call is attempted.
type CallerInputError struct {
	Operation Operation
	Field     string
	Reason    string
}

func (e *CallerInputError) Error() string {
	return fmt.Sprintf("%s: invalid input %q: %s", e.Operation, e.Field, e.Reason)
}

// IsCallerInputError reports whether err wraps a CallerInputError.
func IsCallerInputError(err error) bool {
	var cie *CallerInputError
	return errors.As(err, &cie)
}

// ErrExtraction is returned when no single balanced JSON object can be found
// in a provider response.
var ErrExtraction = errors.New("no unambiguous json object in response")

// ValidationError lists why a parsed object could not be turned into a result.
type ValidationError struct {
	Operation Operation
	Problems  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid result: %s", e.Operation, strings.Join(e.Problems, "; "))
}

func requireText(op Operation, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &CallerInputError{Operation: op, Field: field, Reason: "must not be empty"}
	}
	return nil
}
