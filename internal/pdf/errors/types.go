package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PipelineError represents a failure or a recoverable problem raised while
// turning an HTML document into a fillable PDF.
type PipelineError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FieldName   string    `json:"field_name,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	cause       error
}

// ErrorType represents the categories of pipeline errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeRenderTimeout
	ErrorTypeIO
	ErrorTypeInvalidArtifact
	ErrorTypePageCountMismatch
	ErrorTypeBrowserFailure
	ErrorTypeUnattributableField
	ErrorTypePageOutOfRange
	ErrorTypeMalformedRadio
	ErrorTypeUnknownFieldType
	ErrorTypeDuplicateField
	ErrorTypeSecurityRestriction
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *PipelineError) Unwrap() error {
	return e.cause
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRenderTimeout:
		return "RENDER_TIMEOUT"
	case ErrorTypeIO:
		return "IO"
	case ErrorTypeInvalidArtifact:
		return "INVALID_ARTIFACT"
	case ErrorTypePageCountMismatch:
		return "PAGE_COUNT_MISMATCH"
	case ErrorTypeBrowserFailure:
		return "BROWSER_FAILURE"
	case ErrorTypeUnattributableField:
		return "UNATTRIBUTABLE_FIELD"
	case ErrorTypePageOutOfRange:
		return "PAGE_OUT_OF_RANGE"
	case ErrorTypeMalformedRadio:
		return "MALFORMED_RADIO"
	case ErrorTypeUnknownFieldType:
		return "UNKNOWN_FIELD_TYPE"
	case ErrorTypeDuplicateField:
		return "DUPLICATE_FIELD"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeRenderTimeout, ErrorTypeBrowserFailure, ErrorTypePageCountMismatch:
		return SeverityFatal
	case ErrorTypeIO, ErrorTypeInvalidArtifact, ErrorTypeSecurityRestriction:
		return SeverityError
	case ErrorTypePageOutOfRange, ErrorTypeMalformedRadio, ErrorTypeUnknownFieldType, ErrorTypeDuplicateField:
		return SeverityWarning
	case ErrorTypeUnattributableField:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the pipeline keeps going after this kind of
// problem. Per-field problems are logged and skipped; everything else aborts.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeUnattributableField, ErrorTypePageOutOfRange, ErrorTypeMalformedRadio,
		ErrorTypeUnknownFieldType, ErrorTypeDuplicateField:
		return true
	default:
		return false
	}
}

// NewPipelineError creates a new PipelineError
func NewPipelineError(errorType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPipelineErrorWithContext creates a new PipelineError with additional context
func NewPipelineErrorWithContext(errorType ErrorType, message, context string) *PipelineError {
	e := NewPipelineError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PipelineError, keeping it reachable via Unwrap.
func WrapError(errorType ErrorType, message string, err error) *PipelineError {
	e := NewPipelineError(errorType, message)
	e.cause = err
	return e
}

// WithContext adds context to an existing PipelineError
func (e *PipelineError) WithContext(context string) *PipelineError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PipelineError
func (e *PipelineError) WithFile(filePath string) *PipelineError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PipelineError
func (e *PipelineError) WithPage(pageNumber int) *PipelineError {
	e.PageNumber = pageNumber
	return e
}

// WithField records the field the error is about
func (e *PipelineError) WithField(name string) *PipelineError {
	e.FieldName = name
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PipelineError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsFatal returns true if this error must abort the run
func (e *PipelineError) IsFatal() bool {
	return e.GetSeverity() == SeverityFatal
}

// TypeOf returns the ErrorType of the first PipelineError in err's chain,
// or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries a PipelineError of the given type.
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRenderTimeout reports whether pagination never completed within the bound.
func IsRenderTimeout(err error) bool {
	return Is(err, ErrorTypeRenderTimeout)
}

// ErrorCollection accumulates recoverable problems seen during a run
type ErrorCollection struct {
	Errors   []*PipelineError `json:"errors"`
	Warnings []*PipelineError `json:"warnings"`
	FilePath string           `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PipelineError, 0),
		Warnings: make([]*PipelineError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PipelineError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// CountType returns how many collected entries have the given type
func (ec *ErrorCollection) CountType(errorType ErrorType) int {
	n := 0
	for _, group := range [][]*PipelineError{ec.Errors, ec.Warnings} {
		for _, e := range group {
			if e.Type == errorType {
				n++
			}
		}
	}
	return n
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
