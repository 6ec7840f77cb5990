package catalogapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrVersionConflict is matched by an APIError for 409 responses to a conditional replacement.
	ErrVersionConflict = errors.New("catalog version conflict")
	// ErrValidation is matched by an APIError for 400 responses carrying field errors.
	ErrValidation = errors.New("catalog rejected the products")
)

// APIError is a non-2xx response from the catalog service.
type APIError struct {
	StatusCode       int
	Message          string
	ValidationErrors map[string]string
}

func (e *APIError) Error() string {
	if len(e.ValidationErrors) > 0 {
		fields := make([]string, 0, len(e.ValidationErrors))
		for field, rule := range e.ValidationErrors {
			fields = append(fields, field+": "+rule)
		}
		sort.Strings(fields)
		return fmt.Sprintf("catalog api: %d: %s", e.StatusCode, strings.Join(fields, "; "))
	}
	return fmt.Sprintf("catalog api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrVersionConflict:
		return e.StatusCode == http.StatusConflict
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest && len(e.ValidationErrors) > 0
	}
	return false
}

// Temporary reports whether the request may succeed if retried unchanged.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
