package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 0,07", FormatBRL(7))
	assert.Equal(t, "R$ 1,50", FormatBRL(150))
	assert.Equal(t, "R$ 150,00", FormatBRL(15000))
	assert.Equal(t, "R$ 1.234,56", FormatBRL(123456))
	assert.Equal(t, "R$ 1.234.567,89", FormatBRL(123456789))
	assert.Equal(t, "-R$ 12,34", FormatBRL(-1234))
}

func TestNewVerificationToken(t *testing.T) {
	a, err := newVerificationToken()
	assert.NoError(t, err)
	assert.Len(t, a, 32)
	b, err := newVerificationToken()
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}
