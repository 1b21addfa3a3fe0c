package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/campus-api/internal/api"
)

func violationFields(violations []api.FieldError) []string {
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestValidateRegisterValid(t *testing.T) {
	req := RegisterRequest{
		Name:            "  Ann Pereira  ",
		Email:           "Ann@X.com",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		Role:            "student",
	}

	violations := ValidateRegister(&req)
	assert.Empty(t, violations)

	// Normalization happens in place.
	assert.Equal(t, "Ann Pereira", req.Name)
	assert.Equal(t, "ann@x.com", req.Email)
}

func TestValidateRegisterCollectsAllViolations(t *testing.T) {
	req := RegisterRequest{
		Name:            "   ",
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "different",
		Role:            "professor",
	}

	violations := ValidateRegister(&req)
	require.Len(t, violations, 5)

	fields := violationFields(violations)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "confirm_password")
	assert.Contains(t, fields, "role")
}

func TestValidateRegisterPasswordMinLength(t *testing.T) {
	req := RegisterRequest{
		Name:            "Ann",
		Email:           "ann@x.com",
		Password:        "short",
		ConfirmPassword: "short",
		Role:            "student",
	}

	violations := ValidateRegister(&req)
	require.Len(t, violations, 1)
	assert.Equal(t, "password", violations[0].Field)
	assert.Contains(t, violations[0].Message, "at least 8 characters")
}

func TestValidateRegisterConfirmMismatch(t *testing.T) {
	req := RegisterRequest{
		Name:            "Ann",
		Email:           "ann@x.com",
		Password:        "longenough1",
		ConfirmPassword: "longenough2",
		Role:            "lecturer",
	}

	violations := ValidateRegister(&req)
	require.Len(t, violations, 1)
	assert.Equal(t, "confirm_password", violations[0].Field)
}

func TestValidateRegisterAdminRoleIsStructurallyValid(t *testing.T) {
	// The admin gate is policy, not validation; the validator accepts it.
	req := RegisterRequest{
		Name:            "Ann",
		Email:           "ann@x.com",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		Role:            "admin",
	}

	assert.Empty(t, ValidateRegister(&req))
}

func TestValidateRegisterRejectsNameAddrEmailForm(t *testing.T) {
	req := RegisterRequest{
		Name:            "Ann",
		Email:           "Ann Pereira <ann@x.com>",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		Role:            "student",
	}

	violations := ValidateRegister(&req)
	require.Len(t, violations, 1)
	assert.Equal(t, "email", violations[0].Field)
}

func TestValidateLogin(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req := LoginRequest{Email: "Ann@X.com", Password: "whatever"}
		assert.Empty(t, ValidateLogin(&req))
		assert.Equal(t, "ann@x.com", req.Email)
	})

	t.Run("CollectsBothViolations", func(t *testing.T) {
		req := LoginRequest{Email: "nope", Password: ""}
		violations := ValidateLogin(&req)
		require.Len(t, violations, 2)
		assert.ElementsMatch(t, []string{"email", "password"}, violationFields(violations))
	})
}
