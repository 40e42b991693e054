package validators

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestEmailValidator(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"ana@example.com", nil},
		{"  ana@example.com  ", nil},
		{"", ErrEmailEmpty},
		{"   ", ErrEmailEmpty},
		{"ana", ErrEmailInvalid},
		{"Ana <ana@example.com>", ErrEmailInvalid},
		{strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.ErrorIs(t, EmailValidator(tt.in), tt.want)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestPasswordValidator(t *testing.T) {
	assert.NoError(t, PasswordValidator("secret1"))
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("x", 256)), ErrPasswordTooLong)
}

func TestNameValidator(t *testing.T) {
	assert.NoError(t, NameValidator("Ana"))
	assert.ErrorIs(t, NameValidator(" "), ErrNameEmpty)
	assert.ErrorIs(t, NameValidator(strings.Repeat("é", 101)), ErrNameTooLong)
	assert.NoError(t, NameValidator(strings.Repeat("é", 100)))
}

func TestReadingValidator(t *testing.T) {
	tests := []struct {
		name      string
		temp, hum *float64
		want      error
	}{
		{"ok", ptr(21.5), ptr(40), nil},
		{"zeros are values", ptr(0), ptr(0), nil},
		{"negative", ptr(-12.25), ptr(100), nil},
		{"no temperature", nil, ptr(40), ErrTemperatureMissing},
		{"no humidity", ptr(21.5), nil, ErrHumidityMissing},
		{"nan", ptr(math.NaN()), ptr(40), ErrNotFinite},
		{"inf", ptr(21.5), ptr(math.Inf(1)), ErrNotFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ReadingValidator(tt.temp, tt.hum), tt.want)
		})
	}
}
