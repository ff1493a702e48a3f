package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTillState_Transitions(t *testing.T) {
	assert.True(t, TillOpen.CanTransitionTo(TillClosed))
	assert.True(t, TillClosed.CanTransitionTo(TillClosed))
	assert.False(t, TillClosed.CanTransitionTo(TillOpen))
	assert.False(t, TillOpen.CanTransitionTo(TillOpen))
	assert.False(t, TillState(0).CanTransitionTo(TillClosed))
}

func TestTillState_ScanAndValue(t *testing.T) {
	var s TillState
	require.NoError(t, s.Scan("OPEN"))
	assert.Equal(t, TillOpen, s)
	require.NoError(t, s.Scan([]byte("CLOSED")))
	assert.Equal(t, TillClosed, s)

	assert.Error(t, s.Scan("ABIERTA"))
	assert.Error(t, s.Scan(42))

	v, err := TillClosed.Value()
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", v)

	_, err = TillState(9).Value()
	assert.Error(t, err)

	raw, err := json.Marshal(TillOpen)
	require.NoError(t, err)
	assert.JSONEq(t, `"OPEN"`, string(raw))
}

func TestComputeBreakdown(t *testing.T) {
	d := decimal.RequireFromString
	gross := PaymentSplit{Cash: d("100"), Digital: d("50")}
	restricted := PaymentSplit{Cash: d("30"), Digital: d("10")}

	t.Run("separate restricted", func(t *testing.T) {
		b := ComputeBreakdown(gross, restricted, true)
		assert.True(t, b.NetCash.Equal(d("70")))
		assert.True(t, b.NetDigital.Equal(d("40")))
		assert.True(t, b.RestrictedCash.Equal(d("30")))
		assert.True(t, b.RestrictedDigital.Equal(d("10")))
		assert.True(t, b.GrandTotal.Equal(d("150")))
		assert.True(t, b.RestrictedTotal().Equal(d("40")))
	})

	t.Run("folded restricted", func(t *testing.T) {
		b := ComputeBreakdown(gross, restricted, false)
		assert.True(t, b.NetCash.Equal(d("100")))
		assert.True(t, b.NetDigital.Equal(d("50")))
		assert.True(t, b.RestrictedCash.IsZero())
		assert.True(t, b.RestrictedDigital.IsZero())
		assert.True(t, b.GrandTotal.Equal(d("150")))
	})

	t.Run("identity holds for both settings", func(t *testing.T) {
		for _, separate := range []bool{true, false} {
			b := ComputeBreakdown(gross, restricted, separate)
			sum := b.NetCash.Add(b.NetDigital).Add(b.RestrictedCash).Add(b.RestrictedDigital)
			assert.True(t, b.GrandTotal.Equal(sum))
		}
	})
}

func TestPaymentSplit_Add(t *testing.T) {
	var p PaymentSplit
	p.Add(PaymentCash, decimal.NewFromInt(10))
	p.Add(PaymentCard, decimal.NewFromInt(5))
	p.Add(PaymentQR, decimal.NewFromInt(2))
	p.Add(PaymentTransfer, decimal.NewFromInt(3))

	assert.True(t, p.Cash.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.Digital.Equal(decimal.NewFromInt(10)))
}
