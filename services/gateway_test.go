package services

import (
	"context"
	"strings"
	"testing"

	"github.com/campusgate/campusgate-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubGatewayTransactionFormat(t *testing.T) {
	gateway := NewStubGateway()

	charge, err := gateway.Charge(context.Background(), 50000, model.MethodUPI)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(charge.TransactionID, "TXN_"))
	assert.Len(t, charge.TransactionID, len("TXN_")+12)
	assert.Equal(t, "Success", charge.Status)
	assert.Equal(t, 50000.0, charge.Amount)
}

func TestStubGatewayIssuesUniqueIDs(t *testing.T) {
	gateway := NewStubGateway()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		charge, err := gateway.Charge(context.Background(), 100, model.MethodCard)
		require.NoError(t, err)
		assert.False(t, seen[charge.TransactionID], "duplicate transaction id issued")
		seen[charge.TransactionID] = true
	}
}
