package csvio

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/txledger/internal/domain"
)

func TestWriter_RendersFixedPrecision(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 4)

	err := w.Write(context.Background(), []domain.AccountSnapshot{
		{
			ClientID:  1,
			Available: decimal.RequireFromString("1.5"),
			Held:      decimal.Zero,
			Total:     decimal.RequireFromString("1.5"),
		},
		{
			ClientID:  2,
			Available: decimal.RequireFromString("2"),
			Held:      decimal.RequireFromString("0.12345"),
			Total:     decimal.RequireFromString("2.12345"),
			Locked:    true,
		},
	})
	require.NoError(t, err)

	expected := "client,available,held,total,locked\n" +
		"1,1.5000,0.0000,1.5000,false\n" +
		"2,2.0000,0.1235,2.1235,true\n"
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, "csv", w.Name())
}

func TestWriter_EmptySnapshots(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewWriter(&buf, 2).Write(context.Background(), nil))
	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}

func TestWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewWriter(&buf, 4).Write(ctx, []domain.AccountSnapshot{{ClientID: 1}})
	require.ErrorIs(t, err, context.Canceled)
}
