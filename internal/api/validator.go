package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	app_errors "bible-chat/backend/internal/errors"
)

// This file provides a singleton validation helper for API request bodies.

var (
	validate *validator.Validate
	once     sync.Once
)

// getInstance uses sync.Once to safely initialize and return the validator singleton.
func getInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// validateRequest checks a payload struct against its `validate` tags. A
// failure is returned as a bad_request:api error listing the failed fields.
func validateRequest(payload any) error {
	err := getInstance().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return app_errors.Wrap(app_errors.ErrBadRequest, app_errors.SurfaceAPI, fmt.Errorf("validate request: %w", err))
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return app_errors.Wrap(app_errors.ErrBadRequest, app_errors.SurfaceAPI, errors.New(strings.Join(messages, "; ")))
}
