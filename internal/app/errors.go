package app

import (
	"errors"
	"fmt"
	"net/http"

	"janseva/api/internal/complaint"
)

// DomainError is a use-case failure with the HTTP status and machine code
// clients see. Details, when set, is rendered as the "details" field.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
	// Err is the underlying cause, if any. It is logged, never rendered.
	Err error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// complaintNotFound wraps complaint.ErrNotFound for id.
func complaintNotFound(id string) *DomainError {
	err := domainError(http.StatusNotFound, "NOT_FOUND", "Complaint not found", map[string]any{"id": id})
	err.Err = complaint.ErrNotFound
	return err
}

// validationError turns a complaint.ValidationError into a 422 with one
// message per field; other decode problems become a 400.
func validationError(err error) error {
	var verr *complaint.ValidationError
	if errors.As(err, &verr) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", verr.Fields)
	}
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}
