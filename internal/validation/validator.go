// Package validation checks request shapes with go-playground/validator v10.
//
// It covers what a struct tag can express (required fields, lengths, email,
// slug and colour formats). Rules that need state, such as whether an
// ingredient exists or a tag is listed twice, live in internal/policy.
//
// Example usage:
//
//	type registerRequest struct {
//	    Email    string `json:"email" validate:"required,email,max=254"`
//	    Username string `json:"username" validate:"required,username,max=150"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    writeError(w, err) // 400 with one violation per field
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/apperror"
)

// singleton validator instance; it caches struct metadata across calls
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// GetValidator returns the shared validator. Field names in errors are the
// json names, so they match what the client sent.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return usernamePattern.MatchString(s) && !strings.EqualFold(s, "me")
		})
	})

	return validate
}

// ValidateStruct validates s and returns nil or an *apperror.AppError
// wrapping apperror.ErrValidation with one violation per failed field.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// InvalidValidationError: s was not a struct. A programming error,
		// but still reported as a validation failure rather than a panic.
		return apperror.ValidationFailed("", err.Error())
	}

	violations := make([]apperror.Violation, len(validationErrs))
	for i, fe := range validationErrs {
		violations[i] = apperror.Violation{
			Code:    apperror.CodeValidation,
			Field:   fieldPath(fe),
			Message: translateError(fe),
		}
	}
	return apperror.Rejected(violations)
}

// fieldPath drops the top-level struct name: "registerRequest.email"
// becomes "email", "recipeRequest.ingredients[0].amount" keeps its index.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// errorMessageTemplates maps tags without a parameter to messages.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"hexcolor": "%s must be a hex colour such as #E26C2D",
	"slug":     "%s may contain only letters, digits, hyphens and underscores",
	"username": "%s may contain only letters, digits and @/./+/-/_ and cannot be \"me\"",
	"url":      "%s must be a valid URL",
}

// errorMessageWithParam maps tags with a parameter to messages.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

// translateMinMax words min/max/len by kind: characters for strings, items for
// slices, a plain bound for numbers.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
