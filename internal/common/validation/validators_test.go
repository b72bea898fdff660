// internal/common/validation/validators_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFrenchPhone(t *testing.T) {
	valid := []string{
		"0612345678",
		"06 12 34 56 78",
		"06.12.34.56.78",
		"+33612345678",
		"+33 6 12 34 56 78",
		"0033612345678",
	}
	for _, phone := range valid {
		assert.True(t, ValidateFrenchPhone(phone), phone)
	}

	invalid := []string{
		"",
		"061234567",    // too short
		"06123456789",  // too long
		"0012345678",   // second digit cannot be 0
		"+4412345678",  // wrong country prefix
		"06-12-34-56a", // letters
	}
	for _, phone := range invalid {
		assert.False(t, ValidateFrenchPhone(phone), phone)
	}
}

func TestValidatePostalCode(t *testing.T) {
	assert.True(t, ValidatePostalCode("75001"))
	assert.True(t, ValidatePostalCode("01000"))
	assert.False(t, ValidatePostalCode("123"))
	assert.False(t, ValidatePostalCode("7500a"))
	assert.False(t, ValidatePostalCode("750011"))
}

func TestDepartmentCode(t *testing.T) {
	assert.Equal(t, "75", DepartmentCode("75001"))
	assert.Equal(t, "13", DepartmentCode("13008"))
	assert.Equal(t, "7", DepartmentCode("7"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("client@example.fr"))
	assert.False(t, ValidateEmail("client@"))
	assert.False(t, ValidateEmail(""))
}
