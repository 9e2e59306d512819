package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// validate is the shared validator instance. Validator caches struct
// metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = e.Fields[name]
	}
	return fmt.Sprintf("%v: %s", domain.ErrConfigInvalid, strings.Join(msgs, "; "))
}

// Is matches domain.ErrConfigInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrConfigInvalid
}

// ValidateStruct validates s against its `validate` tags.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Namespace()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed on '%s'", name, fe.Tag())
	}
}

// ValidateAnswerOptions checks per-call pipeline options.
func ValidateAnswerOptions(opts domain.AnswerOptions) error {
	if err := ValidateStruct(opts); err != nil {
		return err
	}
	if !opts.DocumentText.IsValid() {
		return &ValidationError{Fields: map[string]string{
			"AnswerOptions.DocumentText": fmt.Sprintf("AnswerOptions.DocumentText %q is not a known policy", opts.DocumentText),
		}}
	}
	return nil
}
