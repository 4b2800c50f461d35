// Package errors provides structured error handling for the match service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeSessionNotReady Code = "SESSION_NOT_READY"
	CodeSessionFinished Code = "SESSION_FINISHED"

	// Move errors
	CodeDuplicateMove Code = "DUPLICATE_MOVE"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeSessionNotFound:
		return http.StatusNotFound
	case CodeSessionNotReady, CodeSessionFinished, CodeDuplicateMove:
		return http.StatusConflict
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeStorageFailure, CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
