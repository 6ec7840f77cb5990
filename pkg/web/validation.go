package web

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors flattens validator errors into "path -> failed on rule: tag" pairs.
// The leading struct name is stripped from the namespace, so a field of the second
// element of a validated slice wrapper reads "[1].name".
// ok is false when err is not a validation error.
func FieldErrors(err error) (fieldErrors map[string]string, ok bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}
	fieldErrors = make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fieldErrors[fieldPath(fieldErr.Namespace())] = "failed on rule: " + fieldErr.Tag()
	}
	return fieldErrors, true
}

// fieldPath drops the root type name and the wrapper field from a validator namespace.
// "replaceRequest.Products[1].name" becomes "[1].name"; "draft.name" becomes "name".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	if i := strings.Index(rest, "["); i > 0 && !strings.Contains(rest[:i], ".") {
		return rest[i:]
	}
	return rest
}
