package auth

import (
	"net/mail"
	"strings"

	"github.com/coursehub/campus-api/internal/api"
	"github.com/coursehub/campus-api/internal/models"
)

const minPasswordLength = 8

// ValidateRegister checks a registration payload and normalizes it in place
// (name trimmed, email lowercased). It returns every violation found, not
// just the first.
func ValidateRegister(req *RegisterRequest) []api.FieldError {
	var violations []api.FieldError

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		violations = append(violations, api.FieldError{Field: "name", Message: "Name cannot be empty."})
	}

	req.Email = normalizeEmail(req.Email)
	if !validEmail(req.Email) {
		violations = append(violations, api.FieldError{Field: "email", Message: "Email address is not valid."})
	}

	if len(req.Password) < minPasswordLength {
		violations = append(violations, api.FieldError{Field: "password", Message: "Password must be at least 8 characters long."})
	}

	if req.ConfirmPassword != req.Password {
		violations = append(violations, api.FieldError{Field: "confirm_password", Message: "Passwords do not match."})
	}

	if !models.Role(req.Role).IsValid() {
		violations = append(violations, api.FieldError{Field: "role", Message: "Role must be one of: student, lecturer, admin."})
	}

	return violations
}

// ValidateLogin checks a login payload, normalizing the email.
func ValidateLogin(req *LoginRequest) []api.FieldError {
	var violations []api.FieldError

	req.Email = normalizeEmail(req.Email)
	if !validEmail(req.Email) {
		violations = append(violations, api.FieldError{Field: "email", Message: "Email address is not valid."})
	}

	if req.Password == "" {
		violations = append(violations, api.FieldError{Field: "password", Message: "Password cannot be empty."})
	}

	return violations
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	// Reject the "Name <addr>" form; the field must be the bare address.
	return err == nil && addr.Address == email
}
