// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputParsingFailed    ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeApplicantNotFound   ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeApplicantReadFailed ErrorCode = "APPLICANT_READ_FAILED"
	ErrCodeSchemaNotFound      ErrorCode = "SCHEMA_NOT_FOUND"
	ErrCodeSchemaReadFailed    ErrorCode = "SCHEMA_READ_FAILED"
	ErrCodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"

	ErrCodeOracleCallFailed      ErrorCode = "ORACLE_CALL_FAILED"
	ErrCodeOracleTimeout         ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleResponseInvalid ErrorCode = "ORACLE_RESPONSE_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeExternalServiceError     ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Job input failed validation", details, false)
}

func NewApplicantNotFoundError(tenantID, applicantID string) *StandardError {
	return newError(ErrCodeApplicantNotFound, "Applicant document not found",
		fmt.Sprintf("tenantId: %s, applicantId: %s", tenantID, applicantID), false)
}

func NewApplicantReadFailedError(err error) *StandardError {
	return newError(ErrCodeApplicantReadFailed, "Failed to read applicant document", err.Error(), true)
}

// NewSchemaNotFoundError is fatal for the run; nothing is written.
func NewSchemaNotFoundError(tenantID string) *StandardError {
	return newError(ErrCodeSchemaNotFound, "Tenant has no questionnaire",
		fmt.Sprintf("tenantId: %s", tenantID), false)
}

func NewSchemaReadFailedError(err error) *StandardError {
	return newError(ErrCodeSchemaReadFailed, "Failed to read questionnaire", err.Error(), true)
}

// NewPersistenceFailedError is surfaced to the job engine so it can re-deliver.
func NewPersistenceFailedError(err error) *StandardError {
	return newError(ErrCodePersistenceFailed, "Failed to persist applicant score", err.Error(), true)
}

func NewOracleCallFailedError(questionID string, err error) *StandardError {
	return newError(ErrCodeOracleCallFailed, "Scoring oracle call failed",
		fmt.Sprintf("questionId: %s, error: %s", questionID, err.Error()), true)
}

func NewOracleTimeoutError(questionID string) *StandardError {
	return newError(ErrCodeOracleTimeout, "Scoring oracle call timed out",
		fmt.Sprintf("questionId: %s", questionID), true)
}

func NewOracleResponseInvalidError(details string) *StandardError {
	return newError(ErrCodeOracleResponseInvalid, "Scoring oracle returned an unusable response", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalServiceError, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes modelled on BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:       "INPUT_PARSING_FAILED",
	ErrCodeInputValidationFailed:    "INPUT_VALIDATION_FAILED",
	ErrCodeApplicantNotFound:        "APPLICANT_NOT_FOUND",
	ErrCodeApplicantReadFailed:      "APPLICANT_READ_FAILED",
	ErrCodeSchemaNotFound:           "SCHEMA_NOT_FOUND",
	ErrCodeSchemaReadFailed:         "SCHEMA_READ_FAILED",
	ErrCodePersistenceFailed:        "PERSISTENCE_FAILED",
	ErrCodeOracleCallFailed:         "ORACLE_CALL_FAILED",
	ErrCodeOracleTimeout:            "ORACLE_TIMEOUT",
	ErrCodeOracleResponseInvalid:    "ORACLE_RESPONSE_INVALID",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeExternalServiceError:     "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                  "TIMEOUT_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed,
		ErrCodeSchemaReadFailed,
		ErrCodeApplicantReadFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeExternalServiceError:
		return 3

	case ErrCodeTimeout,
		ErrCodeOracleCallFailed:
		return 2

	case ErrCodeOracleTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
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

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ORACLE"):
		return "AI"
	case strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "APPLICANT"):
		return "DATA"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}
