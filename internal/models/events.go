package models

import (
	"encoding/json"
	"fmt"
)

// Event kinds
const (
	KindSaleCreated    = "SALE_CREATED"
	KindStockCompleted = "STOCK_COMPLETED"
	KindStockError     = "STOCK_ERROR"
)

// EventEnvelope is the tagged wrapper carried on both topics. The payload is
// decoded per kind; a payload that cannot be interpreted for its declared
// kind is a decode failure, not a business failure.
type EventEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// SaleCreatedPayload is the body of a SALE_CREATED event.
type SaleCreatedPayload struct {
	SaleID   string `json:"saleId"`
	BookKey  string `json:"bookKey"`
	Quantity int    `json:"quantity"`
}

// StockResponsePayload is the body of both response kinds. SaleID is empty
// when no sale id could be extracted from the triggering message.
type StockResponsePayload struct {
	SaleID  string `json:"saleId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SaleCreated decodes the envelope's payload as a SALE_CREATED body.
func (e *EventEnvelope) SaleCreated() (*SaleCreatedPayload, error) {
	var p SaleCreatedPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", e.Kind, err)
	}
	return &p, nil
}

// NewStockResponse builds a response envelope of the given kind.
func NewStockResponse(kind, saleID, status, message string) (*EventEnvelope, error) {
	payload, err := json.Marshal(StockResponsePayload{
		SaleID:  saleID,
		Status:  status,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response payload: %w", err)
	}
	return &EventEnvelope{Kind: kind, Payload: payload}, nil
}
