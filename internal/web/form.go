// internal/web/form.go
package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// validate caches struct metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its `validate` struct tags.
func Validate(v interface{}) error {
	return validate.Struct(v)
}

// ValidationMessage turns a validation error into one sentence for a flash.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address!", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long!", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s!", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s!", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid!", fe.Field())
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, chi.URLParam(r, name))
	}
	return id, nil
}

// FormString returns the trimmed form value for key.
func FormString(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// FormInt parses an optional integer form field. Empty yields nil.
func FormInt(r *http.Request, key string) (*int, error) {
	raw := FormString(r, key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &n, nil
}
