package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeNotElevated      = "ERR_NOT_ELEVATED"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeEnvFile          = "ENV_FILE"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeUnknownStep      = "UNKNOWN_STEP"
)

// ErrNotElevated matches any UserError with ErrCodeNotElevated via errors.Is.
var ErrNotElevated = &UserError{Code: ErrCodeNotElevated}

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "ERR_NOT_ELEVATED")
	Message    string // User-friendly error message
	Context    string // File path, field name, or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %v", e.Underlying)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// ErrorList accumulates validation errors so all of them are reported at once.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{errors: make([]*UserError, 0)}
}

// Add adds an error to the list.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a validation error for field.
func (l *ErrorList) AddValidation(field string, err error) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("invalid value for %s", field),
		Context:    field,
		Underlying: err,
	})
}

// HasErrors returns true if there are any errors.
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// Errors returns the list of errors.
func (l *ErrorList) Errors() []*UserError {
	result := make([]*UserError, len(l.errors))
	copy(result, l.errors)
	return result
}

// Error implements the error interface for ErrorList.
func (l *ErrorList) Error() string {
	if len(l.errors) == 0 {
		return ""
	}
	if len(l.errors) == 1 {
		return l.errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Format returns a detailed formatted output of all errors.
func (l *ErrorList) Format() string {
	if len(l.errors) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s):\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n--- Error %d ---\n", i+1)
		b.WriteString(err.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// AsError returns the ErrorList as an error, or nil if empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// NewNotElevatedError reports a run started without root privileges.
func NewNotElevatedError() *UserError {
	return &UserError{
		Code:       ErrCodeNotElevated,
		Message:    "archstrap must run as root",
		Suggestion: "Re-run with sudo (sudo archstrap run), or pass --dry-run to simulate without privileges.",
	}
}

// NewUserNotFoundError reports an unresolvable target user.
func NewUserNotFoundError(name string, err error) *UserError {
	ue := &UserError{
		Code:       ErrCodeUserNotFound,
		Message:    fmt.Sprintf("cannot resolve target user %q", name),
		Suggestion: "Pass --user <name> or set ARCHSTRAP_USER to an existing unprivileged account.",
		Underlying: err,
	}
	if name == "" {
		ue.Message = "no target user"
		ue.Suggestion = "Run through sudo so SUDO_USER is set, or pass --user <name>."
	}
	return ue
}

// NewConfigNotFoundError creates an error for a missing catalog file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    "catalog file not found",
		Context:    path,
		Suggestion: "Check the --config path, or omit it to use the built-in catalog.",
	}
}

// NewConfigParseError creates an error for catalog decoding failures.
func NewConfigParseError(path string, err error) *UserError {
	suggestion := "Check the YAML syntax: indentation uses spaces, lists start with '- ', keys end with ':'."
	if strings.HasSuffix(path, ".toml") {
		suggestion = "Check the TOML syntax: strings are quoted, arrays use [ ], tables use [section]."
	}
	if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "strict mode") {
		suggestion = "Remove or rename the unknown key; run 'archstrap steps' to see what the catalog drives."
	}
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse catalog file",
		Context:    path,
		Suggestion: suggestion,
		Underlying: err,
	}
}

// NewEnvFileError reports an env file that exists but cannot be loaded.
func NewEnvFileError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeEnvFile,
		Message:    "failed to load environment file",
		Context:    path,
		Suggestion: "Each line must be KEY=value; comments start with '#'.",
		Underlying: err,
	}
}

// NewUnknownStepError reports a step ID that is not in the catalog.
func NewUnknownStepError(id string, available []string) *UserError {
	return &UserError{
		Code:       ErrCodeUnknownStep,
		Message:    fmt.Sprintf("unknown step %q", id),
		Suggestion: fmt.Sprintf("Available steps: %s", strings.Join(available, ", ")),
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
