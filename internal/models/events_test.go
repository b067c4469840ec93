package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeSaleCreated(t *testing.T) {
	raw := `{"kind":"SALE_CREATED","payload":{"saleId":"S1","bookKey":"978-0-13-468599-1","quantity":3}}`

	var env EventEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.Equal(t, KindSaleCreated, env.Kind)

	payload, err := env.SaleCreated()
	require.NoError(t, err)
	assert.Equal(t, "S1", payload.SaleID)
	assert.Equal(t, "978-0-13-468599-1", payload.BookKey)
	assert.Equal(t, 3, payload.Quantity)
}

func TestEnvelopePayloadMismatch(t *testing.T) {
	// A payload that cannot be interpreted for its declared kind is a
	// decode failure.
	var env EventEnvelope
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"SALE_CREATED","payload":[1,2,3]}`), &env))

	_, err := env.SaleCreated()
	assert.Error(t, err)
}

func TestNewStockResponse(t *testing.T) {
	env, err := NewStockResponse(KindStockError, "S1", StatusError, "insufficient stock")
	require.NoError(t, err)
	assert.Equal(t, KindStockError, env.Kind)

	var p StockResponsePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "S1", p.SaleID)
	assert.Equal(t, StatusError, p.Status)
	assert.Equal(t, "insufficient stock", p.Message)
}

func TestNewStockResponseEmptySaleID(t *testing.T) {
	env, err := NewStockResponse(KindStockError, "", StatusError, "unsupported event kind: X")
	require.NoError(t, err)

	var p StockResponsePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Empty(t, p.SaleID)
}
