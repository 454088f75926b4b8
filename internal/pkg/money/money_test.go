package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePrice(t *testing.T) {
	t.Run("free of charge always yields zero", func(t *testing.T) {
		assert.Zero(t, EvaluatePrice(10000, 10, true, true))
		assert.Zero(t, EvaluatePrice(10000, 0, false, true))
	})

	t.Run("vat excluded passes the nominal price through", func(t *testing.T) {
		assert.Equal(t, int64(10000), EvaluatePrice(10000, 10, false, false))
	})

	t.Run("vat included strips the vat fraction", func(t *testing.T) {
		assert.Equal(t, int64(10000), EvaluatePrice(11000, 10, true, false))
	})
}

func TestRemoveVAT(t *testing.T) {
	assert.Equal(t, int64(10000), RemoveVAT(11000, 10))
	assert.Equal(t, int64(10000), RemoveVAT(12100, 21))

	// rounds to the nearest cent
	assert.Equal(t, int64(909), RemoveVAT(1000, 10))
	assert.Equal(t, int64(83), RemoveVAT(100, 21))

	// zero vat is the identity
	assert.Equal(t, int64(1000), RemoveVAT(1000, 0))
}

func TestAddVAT(t *testing.T) {
	assert.Equal(t, int64(11000), AddVAT(10000, 10))
	assert.Equal(t, int64(121), AddVAT(100, 21))
	assert.Equal(t, int64(100), AddVAT(100, 0))
}

func TestAddRemoveVATRoundTrip(t *testing.T) {
	assert.Equal(t, int64(10000), RemoveVAT(AddVAT(10000, 21), 21))
}
