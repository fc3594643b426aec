package ugcads

import (
	"errors"
	"fmt"
	"net/http"

	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/models"
)

// ValidationError lists every field that failed normalization.
type ValidationError struct {
	Details []models.FieldDetail
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "invalid request data"
	}
	return fmt.Sprintf("invalid request data: %s %s", e.Details[0].Field, e.Details[0].Message)
}

// UploadError names the form part whose object-store write failed.
type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("Failed to upload %s: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ProviderError is returned when both the primary and the fallback model
// were rejected. It keeps the last provider answer and the payload so the
// caller can echo them back.
type ProviderError struct {
	Message        string
	Response       *kie.GenerateResponse
	Payload        kie.GenerateRequest
	Attempts       []Attempt
	EnhancedPrompt string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// HTTPStatus maps a pipeline error onto the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		validationErr  *ValidationError
		uploadErr      *UploadError
		providerErr    *ProviderError
		persistenceErr *PersistenceError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &uploadErr):
		return http.StatusInternalServerError
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
