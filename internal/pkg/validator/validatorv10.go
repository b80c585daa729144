package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/otpgate/otpgate/internal/pkg/strcase"
)

// Validator is the interface business code depends on.
type Validator interface {
	Validate(data any) error
}

// Length-only password rule per NIST 800-63B; 72 is bcrypt's input ceiling.
var rePassword = regexp.MustCompile(`^.{8,72}$`)

// ErrTranslatorNotFound indicates the English translator failed to load.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps snake_case field names to translated messages.
// The router serializes it into the error envelope's field map.
type V10ValidationError map[string]string

// Error implements error; the JSON form keeps logs greppable by field.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}

	return string(b)
}

// Values returns the underlying field map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator implements Validator over go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator builds the validator with English translations and the
// module's custom rules registered.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	translator, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}
	if err := registerPasswordRule(validate, translator); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: translator}, nil
}

// Validate checks data's tags and returns a V10ValidationError on failure.
// Non-validation errors (nil pointers, unexported structs) pass through as-is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}

	return out
}

func registerPasswordRule(validate *validator.Validate, translator ut.Translator) error {
	err := validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		p, ok := fl.Field().Interface().(string)
		return ok && rePassword.MatchString(p)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation("password", translator,
		func(ut ut.Translator) error {
			return ut.Add("password", "{0} must be 8-72 characters", false)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(fe.Tag(), fe.Field())
			return t
		},
	)
}
