// Package apperr defines the pipeline's error-kind taxonomy and the
// structured error type carried across stage boundaries.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind enumerates the error kinds the orchestrator understands. Only
// these six kinds may terminate or degrade a job; anything else is
// wrapped as InternalError at the stage boundary.
type Kind string

const (
	// InputError: URL invalid or kind undetectable. Surfaces as 400;
	// never creates a job.
	InputError Kind = "input_error"
	// FetchError: HTTP status non-retryable, or retries exhausted.
	FetchError Kind = "fetch_error"
	// ExtractionError: neither product code nor name derivable.
	ExtractionError Kind = "extraction_error"
	// AnalyzeError: unexpected failure inside the analyzer.
	AnalyzeError Kind = "analyze_error"
	// DegradableError: recommender/checklist/validator/side-effect
	// failure. The stage records failure but the job proceeds.
	DegradableError Kind = "degradable_error"
	// InternalError: anything else.
	InternalError Kind = "internal_error"
)

// httpStatus maps each kind to its default HTTP status when surfaced
// directly (InputError is the only kind normally surfaced to a caller
// synchronously; the rest terminate a job asynchronously).
var httpStatus = map[Kind]int{
	InputError:      http.StatusBadRequest,
	FetchError:      http.StatusBadGateway,
	ExtractionError: http.StatusUnprocessableEntity,
	AnalyzeError:    http.StatusInternalServerError,
	DegradableError: http.StatusOK,
	InternalError:   http.StatusInternalServerError,
}

// userMessage gives the short, translated message shown to polling
// clients per §7 ("user message as a short translated string").
var userMessage = map[Kind]string{
	InputError:      "invalid URL",
	FetchError:      "network error",
	ExtractionError: "could not extract product data",
	AnalyzeError:    "analysis failed",
	DegradableError: "partial result",
	InternalError:   "internal error",
}

// Error is the structured error type passed between pipeline stages.
type Error struct {
	Kind        Kind
	Operation   string
	Message     string
	UserMessage string
	Retryable   bool
	RetryAfter  *time.Duration
	HTTPStatus  int
	Cause       error
	Timestamp   time.Time
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, operation, message string, cause error) *Error {
	return &Error{
		Kind:        kind,
		Operation:   operation,
		Message:     message,
		UserMessage: userMessage[kind],
		HTTPStatus:  httpStatus[kind],
		Cause:       cause,
		Timestamp:   time.Now().UTC(),
	}
}

// NewInputError builds an InputError; these never create a job.
func NewInputError(operation, message string) *Error {
	return newError(InputError, operation, message, nil)
}

// NewFetchError builds a FetchError, optionally retryable.
func NewFetchError(operation, message string, cause error, retryable bool) *Error {
	e := newError(FetchError, operation, message, cause)
	e.Retryable = retryable
	return e
}

// NewExtractionError builds an ExtractionError.
func NewExtractionError(operation, message string) *Error {
	return newError(ExtractionError, operation, message, nil)
}

// NewAnalyzeError builds an AnalyzeError.
func NewAnalyzeError(operation, message string, cause error) *Error {
	return newError(AnalyzeError, operation, message, cause)
}

// NewDegradableError builds a DegradableError; the orchestrator
// records stage failure but keeps the job running.
func NewDegradableError(operation, message string, cause error) *Error {
	return newError(DegradableError, operation, message, cause)
}

// NewInternalError builds an InternalError for anything unanticipated.
func NewInternalError(operation, message string, cause error) *Error {
	return newError(InternalError, operation, message, cause)
}

// KindOf extracts the Kind of an error produced by this package,
// defaulting to InternalError for foreign errors (the catch-all rule
// from §7: "any other").
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// IsRetryable reports whether err carries a Retryable flag.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Translate maps an underlying cause to the short user-facing string
// described in §4.8: "HTTP error → network error; timeout → timeout;
// 'detect' or 'type' in the cause → could not detect URL kind".
func Translate(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case FetchError:
			return "network error"
		case ExtractionError:
			return "could not extract product data"
		}
		msg := e.Message
		if containsAny(msg, "timeout", "deadline exceeded") {
			return "timeout"
		}
		if containsAny(msg, "detect", "type") {
			return "could not detect URL kind"
		}
		if e.UserMessage != "" {
			return e.UserMessage
		}
	}
	if containsAny(err.Error(), "timeout", "deadline exceeded") {
		return "timeout"
	}
	return "internal error"
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
