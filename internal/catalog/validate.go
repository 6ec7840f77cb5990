package catalog

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ReplaceRequest wraps a full replacement list so ids can be checked for uniqueness
// and each product validated in one pass.
type ReplaceRequest struct {
	Products []Product `json:"products" validate:"unique=ID,dive"`
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
