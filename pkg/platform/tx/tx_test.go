package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx_NilIsIgnored(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestFrom_ReturnsStoredTx(t *testing.T) {
	sqlTx := &sql.Tx{}
	ctx := WithTx(context.Background(), sqlTx)
	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
}

func TestRun_ReusesAmbientTx(t *testing.T) {
	sqlTx := &sql.Tx{}
	ctx := WithTx(context.Background(), sqlTx)
	called := false
	err := Run(ctx, nil, func(inner context.Context) error {
		called = true
		got, _ := From(inner)
		assert.Same(t, sqlTx, got)
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
