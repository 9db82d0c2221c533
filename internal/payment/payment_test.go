package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProcessorCharge(t *testing.T) {
	p := NewMockProcessor(10000)
	ctx := context.Background()

	out, err := p.Charge(ctx, 2500, "EUR", MethodCard)
	require.NoError(t, err)
	assert.Regexp(t, "^TRX-[0-9A-F-]{13}$", out.TransactionID)
	assert.Equal(t, int64(2500), out.AmountCents)

	_, err = p.Charge(ctx, 10001, "EUR", MethodCard)
	assert.ErrorIs(t, err, ErrDeclined)

	_, err = p.Charge(ctx, 0, "EUR", MethodCard)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMockProcessorRefund(t *testing.T) {
	p := NewMockProcessor(0)
	ctx := context.Background()

	out, err := p.Charge(ctx, 500, "EUR", MethodCash)
	require.NoError(t, err)

	_, err = p.Refund(ctx, out.TransactionID, 600)
	assert.Error(t, err)

	_, err = p.Charge(ctx, 500, "EUR", MethodCash)
	require.NoError(t, err)
	out2, err := p.Charge(ctx, 700, "EUR", MethodCash)
	require.NoError(t, err)
	r, err := p.Refund(ctx, out2.TransactionID, 700)
	require.NoError(t, err)
	assert.Contains(t, r.TransactionID, "RFD-")

	_, err = p.Refund(ctx, out2.TransactionID, 700)
	assert.Error(t, err, "second refund of the same transaction")
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodCard, m)

	m, err = ParseMethod(" Bank_Transfer ")
	require.NoError(t, err)
	assert.Equal(t, MethodBankTransfer, m)

	_, err = ParseMethod("bitcoin")
	assert.Error(t, err)
}
