// Package rdferr defines the error kinds shared by the loader, the store
// and the query evaluator.
//
// Every failure that crosses an engine operation boundary is one of:
//   - ParseError: malformed load input or malformed query text
//   - EvaluationError: unsupported query construct or a value that fails coercion
//   - CapacityError: a configured triple or binding ceiling was exceeded
//
// Errors are plain values. Only the protocol layer turns them into the
// host's "ERROR: <message>" payload.
package rdferr

import (
	"errors"
	"fmt"
)

// ParseError reports malformed Turtle or SPARQL text.
type ParseError struct {
	// Source names the grammar that failed ("turtle", "sparql", "ntriples", ...).
	Source string

	// Line and Column are 1-based; zero when unknown.
	Line   int
	Column int

	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s parse error at line %d, column %d: %s", e.Source, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s parse error at line %d: %s", e.Source, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s parse error: %s", e.Source, e.Message)
	}
}

// NewParseError creates a ParseError at the given position.
func NewParseError(source string, line, column int, format string, args ...any) *ParseError {
	return &ParseError{
		Source:  source,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

// EvaluationErrorCode categorizes evaluation errors.
type EvaluationErrorCode string

const (
	// ErrCodeUnsupported indicates a query construct outside the supported subset.
	ErrCodeUnsupported EvaluationErrorCode = "UNSUPPORTED"

	// ErrCodeNumericCoercion indicates a numeric literal whose lexical form is not a number.
	ErrCodeNumericCoercion EvaluationErrorCode = "NUMERIC_COERCION"

	// ErrCodeInvalidQuery indicates a structurally valid query that cannot be evaluated
	// (for example a projected variable that never appears in the pattern).
	ErrCodeInvalidQuery EvaluationErrorCode = "INVALID_QUERY"
)

// EvaluationError reports a query that parsed but cannot be answered.
type EvaluationError struct {
	Code EvaluationErrorCode

	// Unsupported names the rejected construct for ErrCodeUnsupported ("CONSTRUCT", "UNION", ...).
	Unsupported string

	Message string
}

func (e *EvaluationError) Error() string {
	if e.Code == ErrCodeUnsupported && e.Unsupported != "" {
		if e.Message != "" {
			return fmt.Sprintf("unsupported query construct %s: %s", e.Unsupported, e.Message)
		}
		return fmt.Sprintf("unsupported query construct %s", e.Unsupported)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnsupportedError creates an EvaluationError for a rejected construct.
func NewUnsupportedError(construct, message string) *EvaluationError {
	return &EvaluationError{
		Code:        ErrCodeUnsupported,
		Unsupported: construct,
		Message:     message,
	}
}

// NewCoercionError creates an EvaluationError for a literal that is not a valid number.
func NewCoercionError(lexical, datatype string) *EvaluationError {
	return &EvaluationError{
		Code:    ErrCodeNumericCoercion,
		Message: fmt.Sprintf("literal %q is not a valid <%s>", lexical, datatype),
	}
}

// CapacityError reports that an insertion or evaluation would exceed a ceiling.
type CapacityError struct {
	// Resource is "triples" or "bindings".
	Resource  string
	Limit     int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: %d %s requested, limit is %d", e.Requested, e.Resource, e.Limit)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsEvaluationError returns true if err is or wraps an EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// IsUnsupported returns true if err is an EvaluationError for a rejected construct.
func IsUnsupported(err error) bool {
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnsupported
	}
	return false
}

// IsCapacityError returns true if err is or wraps a CapacityError.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
