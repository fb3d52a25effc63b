package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/remote"
	"github.com/roach88/typox/internal/snapshot"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // bad document, bad query, failed scenarios
	ExitCommandError = 2 // bad flags, missing database, invalid config
)

// ExitError carries the exit code a command failure maps to.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and context message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that carry no
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in JSON output.
const (
	CodeParse       = "E_PARSE"
	CodeUnsupported = "E_UNSUPPORTED"
	CodeEvaluation  = "E_EVALUATION"
	CodeCapacity    = "E_CAPACITY"
	CodeEndpoint    = "E_ENDPOINT"
	CodeNotFound    = "E_NOT_FOUND"
	CodeCommand     = "E_COMMAND"
	CodeTestFailed  = "E_TEST_FAILED"
	CodeInternal    = "E_INTERNAL"
)

// ErrorCode classifies err for JSON output.
func ErrorCode(err error) string {
	var (
		endpointErr *remote.EndpointError
		exitErr     *ExitError
	)
	switch {
	case rdferr.IsParseError(err):
		return CodeParse
	case rdferr.IsUnsupported(err):
		return CodeUnsupported
	case rdferr.IsEvaluationError(err):
		return CodeEvaluation
	case rdferr.IsCapacityError(err):
		return CodeCapacity
	case errors.As(err, &endpointErr):
		return CodeEndpoint
	case errors.Is(err, snapshot.ErrNotFound):
		return CodeNotFound
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return CodeCommand
	}
	return CodeInternal
}

// OutputFormatter writes command results as text or as a JSON CLIResponse.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; Writer when nil
	Verbose   bool
}

// CLIResponse is the envelope of every json-mode result.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in json mode.
type CLIError struct {
	Code    string `json:"code"` // E_PARSE, E_CAPACITY, ...
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. In text mode data is printed with fmt.Println, except []byte which is
// written as is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetEscapeHTML(false)
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if b, ok := data.([]byte); ok {
		_, err := f.Writer.Write(b)
		return err
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a coded error. Details are shown in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetEscapeHTML(false)
		return enc.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "  %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError. In json mode the error
// is written to Writer so the response stays a single document; in text
// mode the caller's error return is the only report.
func (f *OutputFormatter) Fail(message string, err error) error {
	code := ExitFailure
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	if f.Format == "json" {
		if writeErr := f.Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil); writeErr != nil {
			return writeErr
		}
	}
	return WrapExitError(code, message, err)
}

// VerboseLog writes a diagnostic line when verbose. It prefers ErrWriter so
// json output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
