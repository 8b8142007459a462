package crm

import (
	"strings"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPerson(t *testing.T) {
	t.Run("trims fields and builds full name", func(t *testing.T) {
		p, err := NewPerson(" Ivanov ", " Ivan ", "+79161234567", "")

		require.NoError(t, err)
		assert.Equal(t, "Ivanov", p.FirstName)
		assert.Equal(t, "Ivan", p.SecondName)
		assert.Equal(t, "Ivanov Ivan", p.FullName())
	})

	t.Run("requires both names", func(t *testing.T) {
		_, err := NewPerson("", "Ivan", "", "")
		assert.Equal(t, "INVALID_NAME", shared.ErrorCode(err))

		_, err = NewPerson("Ivanov", "", "", "")
		assert.Equal(t, "INVALID_NAME", shared.ErrorCode(err))
	})

	t.Run("rejects long names", func(t *testing.T) {
		_, err := NewPerson(strings.Repeat("я", 101), "Ivan", "", "")
		assert.Equal(t, "INVALID_NAME", shared.ErrorCode(err))
	})
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"", "+999999999", "999999999", "+1234567890123", "123456789012345"}
	for _, phone := range valid {
		assert.NoError(t, ValidatePhone("phone_number", phone), phone)
	}

	invalid := []string{"12345678", "+7 916 123 45 67", "phone", "+1234567890123456", "8-916-123-45-67"}
	for _, phone := range invalid {
		err := ValidatePhone("phone_number", phone)
		require.Error(t, err, phone)
		de, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "phone_number", de.Field)
	}
}
