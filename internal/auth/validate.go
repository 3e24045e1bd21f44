package auth

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// LoginForm is the login dialog. Identifier is an email or phone number.
type LoginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"min=6"`
}

type SignupForm struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Phone           string `validate:"min=10,digits"`
	Password        string `validate:"strongpassword"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type OTPForm struct {
	OTP string `validate:"len=6,digits"`
}

type ForgotPasswordForm struct {
	Email string `validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `validate:"strongpassword"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// FieldError is one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field, in form order.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	msgs := make([]string, len(v))
	for i, f := range v {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

// For returns the message for field, if it was rejected.
func (v ValidationError) For(field string) string {
	for _, f := range v {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return passwordProblem(fl.Field().String()) == ""
	})
	return v
}

// Validate checks a form struct and returns a ValidationError on failure.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: jsonName(fe.Field()), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field, tag := fe.Field(), fe.Tag()
	switch {
	case field == "Identifier":
		return "Email or phone number is required"
	case field == "FirstName":
		return "First name is required"
	case field == "LastName":
		return "Last name is required"
	case field == "Email" && tag == "required":
		return "Email is required"
	case field == "Email":
		return "Invalid email address"
	case field == "Phone" && tag == "min":
		return "Phone number must be at least 10 digits"
	case field == "Phone":
		return "Phone number can only contain digits"
	case field == "OTP" && tag == "digits":
		return "OTP must contain only numbers"
	case field == "OTP":
		return "OTP must be 6 digits"
	case field == "ConfirmPassword" && tag == "required":
		return "Please confirm your password"
	case field == "ConfirmPassword":
		return "Passwords don't match"
	case field == "Password" && tag == "min":
		return "Password must be at least " + fe.Param() + " characters"
	case field == "Password":
		if s, ok := fe.Value().(string); ok {
			return passwordProblem(s)
		}
	}
	return "Invalid value"
}

// passwordProblem returns the first unmet strength rule, or "".
func passwordProblem(s string) string {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	switch {
	case len(s) < 8:
		return "Password must be at least 8 characters"
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !digit:
		return "Password must contain at least one number"
	case !special:
		return "Password must contain at least one special character"
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func jsonName(field string) string {
	switch field {
	case "OTP":
		return "otp"
	case "ConfirmPassword":
		return "confirmPassword"
	case "FirstName":
		return "firstName"
	case "LastName":
		return "lastName"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
