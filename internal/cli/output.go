package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation was refused or rolled back
	ExitCommandError = 2 // bad arguments or the store could not be opened
)

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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Plain errors map to ExitFailure.
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
	ErrCodeGeneric     = "E000"
	ErrCodeValidation  = "E001"
	ErrCodeNotFound    = "E002"
	ErrCodeState       = "E003"
	ErrCodeRolledBack  = "E004"
	ErrCodeUnavailable = "E005"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, model.ErrTillNotFound), errors.Is(err, model.ErrSaleNotFound),
		errors.Is(err, model.ErrLineItemNotFound), errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrExpenseNotFound):
		return ErrCodeNotFound
	case errors.Is(err, model.ErrTillNotOpen), errors.Is(err, model.ErrReconciliationRead):
		return ErrCodeState
	case errors.Is(err, model.ErrTransactionFailure):
		return ErrCodeRolledBack
	case errors.Is(err, database.ErrPoolExhausted), errors.Is(err, database.ErrPoolClosed):
		return ErrCodeUnavailable
	default:
		return ErrCodeGeneric
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data as JSON, or calls text for the human rendering.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// Fail reports err in the configured format and returns an ExitError for it.
func (f *OutputFormatter) Fail(message string, err error) error {
	code := errorCode(err)
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: fmt.Sprintf("%s: %v", message, err)},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s: %v\n", code, message, err)
	}

	exit := ExitFailure
	if code == ErrCodeValidation {
		exit = ExitCommandError
	}
	return WrapExitError(exit, message, err)
}

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
