// Package server provides the HTTP API for the recruiting workflow.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/recruiting-agent/internal/fetch"
	"github.com/jonathan/recruiting-agent/internal/ingestion"
	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/validation"
	"github.com/jonathan/recruiting-agent/internal/vectorstore"
)

// APIError is an error with an explicit HTTP status
type APIError struct {
	Status  int
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func badRequest(message string, cause error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message, Cause: cause}
}

func notFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		apiErr      *APIError
		notFoundErr *vectorstore.NotFoundError
		providerErr *llm.ProviderError
		fetchErr    *fetch.Error
		fieldErrs   validator.ValidationErrors
		inputErr    *validation.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.As(err, &fieldErrs), errors.Is(err, ingestion.ErrEmptyText):
		return http.StatusBadRequest
	case errors.As(err, &inputErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &providerErr):
		if providerErr.Transient {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
