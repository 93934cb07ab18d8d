package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create order: %w", &InsufficientStockError{ProductID: 7})

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	var se *InsufficientStockError
	if assert.True(t, errors.As(err, &se)) {
		assert.Equal(t, int64(7), se.ProductID)
	}
	assert.Equal(t, "insufficient stock for product 7", se.Error())
	assert.Equal(t, "insufficient stock for product Watch", (&InsufficientStockError{ProductID: 1, Name: "Watch"}).Error())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"watches", "electronics"}, ParseTags("#watches  #electronics"))
	assert.Equal(t, []string{"shoes"}, ParseTags("shoes #"))
	assert.Nil(t, ParseTags("   "))
}

func TestPrimaryCategory(t *testing.T) {
	assert.Equal(t, "watches", PrimaryCategory("#watches #electronics"))
	assert.Equal(t, "shoes", PrimaryCategory("shoes"))
	assert.Equal(t, "", PrimaryCategory(" # "))
}
