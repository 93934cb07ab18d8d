package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

func TestTxErrClassification(t *testing.T) {
	transient := []error{
		&pq.Error{Code: "40001"},
		&pq.Error{Code: "40P01"},
		fmt.Errorf("lock: %w", &pq.Error{Code: "55P03"}),
		context.DeadlineExceeded,
		sql.ErrTxDone,
	}
	for _, err := range transient {
		assert.ErrorIs(t, txErr(err), order.ErrTransactionFailed, "%v", err)
	}

	unique := &pq.Error{Code: "23505"}
	assert.Same(t, unique, txErr(unique))
	short := &catalog.InsufficientStockError{ProductID: 1}
	assert.True(t, errors.Is(txErr(short), catalog.ErrInsufficientStock))
	assert.NoError(t, txErr(nil))
}
