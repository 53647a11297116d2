package handler

import (
	"strings"
	"time"
	"unicode"

	"github.com/asaskevich/govalidator"

	dErrors "agegate/pkg/domain-errors"
)

const birthDateLayout = "2006-01-02"

// RegisterRequest is the HTTP request body for POST /register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	BirthDate       string `json:"birth_date"`

	// Parsed values (populated by Validate)
	parsedBirthDate time.Time
}

// Validate validates and parses the request.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if !govalidator.StringLength(r.Username, "1", "64") {
		return dErrors.New(dErrors.CodeValidation, "username must be between 1 and 64 characters")
	}

	r.Email = strings.TrimSpace(r.Email)
	if !govalidator.StringLength(r.Email, "1", "255") || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}

	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if r.ConfirmPassword != r.Password {
		return dErrors.New(dErrors.CodeValidation, "passwords do not match")
	}

	birthDate, err := time.Parse(birthDateLayout, strings.TrimSpace(r.BirthDate))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "birth_date must be a valid YYYY-MM-DD date")
	}
	r.parsedBirthDate = birthDate.UTC()

	return nil
}

// ParsedBirthDate returns the validated birth date.
func (r *RegisterRequest) ParsedBirthDate() time.Time {
	return r.parsedBirthDate
}

// validatePassword enforces the password policy: at least 10 characters with
// an upper-case letter, a lower-case letter, a digit, and a symbol.
func validatePassword(password string) error {
	if len(password) < 10 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 10 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes, reject instead of silently clipping
		return dErrors.New(dErrors.CodeValidation, "password must be at most 72 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return dErrors.New(dErrors.CodeValidation,
			"password must contain an upper-case letter, a lower-case letter, a digit, and a symbol")
	}
	return nil
}

// LoginRequest is the HTTP request body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credential fields are present. It deliberately
// does not apply the registration password policy: any submitted secret is
// compared against the stored hash so failures stay uniform.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}
