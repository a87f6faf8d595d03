package onboarding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names used in ValidationError.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldGender    = "gender"
	FieldSSN       = "ssn"
	FieldPhone     = "phone"
	FieldAddress   = "address"
	FieldConfirm   = "confirm"
)

// fieldRules are the validator tags applied to each trimmed answer.
var fieldRules = map[string]string{
	FieldFirstName: "required",
	FieldLastName:  "required",
	FieldEmail:     "required,contains=@",
	FieldPassword:  "min=4",
	FieldGender:    "oneof=M F O",
	FieldSSN:       "dashed_ssn",
	FieldPhone:     "len=11",
	FieldAddress:   "required",
}

// stepRules are the looser per-step rules of the chat machine.
var stepRules = map[Step]string{
	StepFirstName: "min=2",
	StepLastName:  "min=2",
	StepEmail:     "contains=@",
	StepPassword:  "min=4",
}

var ssnPattern = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("dashed_ssn", func(fl validator.FieldLevel) bool {
		return ssnPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register dashed_ssn validation: %v", err))
	}
	return v
}

// ValidateField checks one trimmed answer against its rule.
func ValidateField(field, value string) error {
	rule, ok := fieldRules[field]
	if !ok {
		return NewValidationError(field, "unknown field")
	}
	return check(field, strings.TrimSpace(value), rule)
}

// ValidateApplication applies the rules shared by both surfaces: names
// present, email with @, password of at least 4 characters. Optional
// demographics are not checked here.
func ValidateApplication(app Application) error {
	for _, f := range []struct{ name, value string }{
		{FieldFirstName, app.FirstName},
		{FieldLastName, app.LastName},
		{FieldEmail, app.Email},
		{FieldPassword, app.Password},
	} {
		if err := ValidateField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func check(field, value, rule string) error {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return NewValidationError(field, describe(ve[0]))
	}
	return NewValidationError(field, err.Error())
}

// describe converts a validator failure into a readable reason.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "contains":
		return fmt.Sprintf("must contain %q", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dashed_ssn":
		return "must match XXX-XX-XXXX"
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
