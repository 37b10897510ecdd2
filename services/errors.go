package services

import "errors"

// ErrNoStore is returned by audit queries when no decision store is configured.
var ErrNoStore = errors.New("decision store not configured")

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}
