package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError carries the HTTP status a handler should answer with.
type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Message: msg}
}

func ErrTooManyRequests(msg string) error {
	return ServiceError{Status: http.StatusTooManyRequests, Message: msg}
}

// StatusOf reports the status carried by err, if it is a ServiceError.
func StatusOf(err error) (int, bool) {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Status, true
	}
	return 0, false
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
