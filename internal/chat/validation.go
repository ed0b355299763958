package chat

import (
	"errors"
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/lingochat/internal/config"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldViolation describes one rejected input field.
type FieldViolation struct {
	Field       string
	Description string
}

// ValidationError reports every invalid field of a request.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	descriptions := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		descriptions = append(descriptions, v.Description)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(descriptions, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Fields lists the names of the invalid fields.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newInputValidator() (*inputValidator, error) {
	validate, trans, err := config.NewTranslatedValidator("json")
	if err != nil {
		return nil, fmt.Errorf("config.NewTranslatedValidator() > %w", err)
	}
	return &inputValidator{validate: validate, translator: trans}, nil
}

// check returns a *ValidationError listing every failed field of input, or nil.
func (v *inputValidator) check(input any) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate.Struct() > %w", err)
	}

	result := &ValidationError{}
	for _, fe := range validationErrors {
		result.Violations = append(result.Violations, FieldViolation{
			Field:       fe.Field(),
			Description: fe.Translate(v.translator),
		})
	}
	return result
}

// invalidField builds a single-field ValidationError for checks the tags cannot express.
func invalidField(field, description string) error {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Description: description}}}
}
