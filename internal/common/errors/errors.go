// Package errors provides the coded errors RFQ workers report to the
// workflow engine and the retry policy attached to each code.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	// request
	ErrCodeInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeParseError             ErrorCode = "PARSE_ERROR"

	// matching
	ErrCodeCandidateStoreUnavailable ErrorCode = "CANDIDATE_STORE_UNAVAILABLE"
	ErrCodeMatchTimeout              ErrorCode = "TIMEOUT"

	// storage
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeMatchPersistFailed       ErrorCode = "MATCH_PERSIST_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"

	// notification
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error every worker reports.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is what gets thrown into the process instance.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables flattens the error into process variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "RFQ request cannot be matched", nil, details)
}

func NewSchemaValidationFailedError(details string) *StandardError {
	return newError(ErrCodeSchemaValidationFailed, "Job variables failed schema validation", nil, details)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", err, "")
}

func NewCandidateStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeCandidateStoreUnavailable, "Supplier candidate store unavailable", err, "")
}

func NewMatchTimeoutError(err error) *StandardError {
	return newError(ErrCodeMatchTimeout, "RFQ matching did not finish before the deadline", err, "")
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err, "")
}

func NewMatchPersistFailedError(rfqID string, err error) *StandardError {
	return newError(ErrCodeMatchPersistFailed, "Failed to persist match results", err, "").
		WithMetadata("rfqId", rfqID)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query failed", err, "").
		WithMetadata("index", index)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", nil, index)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send "+channel+" notification", err, "").
		WithMetadata("channel", channel)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, "")
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping lists the codes modelled as BPMN error events. Internal
// and BPMN codes are identical.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRequest:            "INVALID_REQUEST",
	ErrCodeSchemaValidationFailed:    "SCHEMA_VALIDATION_FAILED",
	ErrCodeParseError:                "PARSE_ERROR",
	ErrCodeCandidateStoreUnavailable: "CANDIDATE_STORE_UNAVAILABLE",
	ErrCodeMatchTimeout:              "TIMEOUT",
	ErrCodeDatabaseConnectionFailed:  "DATABASE_CONNECTION_FAILED",
	ErrCodeMatchPersistFailed:        "MATCH_PERSIST_FAILED",
	ErrCodeSearchQueryFailed:         "SEARCH_QUERY_FAILED",
	ErrCodeIndexNotFound:             "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:    "NOTIFICATION_SEND_FAILED",
	ErrCodeInternal:                  "INTERNAL_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCandidateStoreUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeMatchPersistFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeMatchTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := 0
	if stdErr.Retryable {
		retries = GetRetryCount(stdErr.Code)
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a StandardError, wrapping anything else as
// an internal error.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.Contains(c, "REQUEST") || strings.Contains(c, "VALIDATION") || strings.Contains(c, "PARSE"):
		return "VALIDATION"
	case strings.Contains(c, "CANDIDATE") || c == string(ErrCodeMatchTimeout):
		return "MATCHING"
	case strings.Contains(c, "DATABASE") || strings.Contains(c, "PERSIST"):
		return "DATABASE"
	case strings.Contains(c, "SEARCH") || strings.Contains(c, "INDEX"):
		return "SEARCH"
	case strings.Contains(c, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
