package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"book-stock-service/internal/models"
	"book-stock-service/internal/util"
)

// SalesClient talks to the external sales service that owns SaleRecords.
// Every call carries a bounded timeout; a timed-out call fails that item or
// cycle instead of hanging the poller.
type SalesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSalesClient creates a client for the sales service at baseURL.
func NewSalesClient(baseURL string, timeout time.Duration) *SalesClient {
	return &SalesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// FetchUnprocessed returns the sales the external service still marks
// unprocessed. An empty list is a valid result, not an error.
func (c *SalesClient) FetchUnprocessed(ctx context.Context) ([]models.UnprocessedSale, error) {
	ctx, span := util.StartSpan(ctx, "SalesClient.FetchUnprocessed")
	defer span.End()

	url := c.baseURL + "/sinProcesar"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed sales: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sales service returned status %d for %s", resp.StatusCode, url)
	}

	var sales []models.UnprocessedSale
	if err := json.NewDecoder(resp.Body).Decode(&sales); err != nil {
		return nil, fmt.Errorf("failed to decode unprocessed sales: %w", err)
	}
	return sales, nil
}

// MarkProcessed tells the sales service a sale has been applied locally. The
// call is idempotent on the remote side: if it fails, the sale reappears in
// the next poll and resolves as already handled before the ack is retried.
func (c *SalesClient) MarkProcessed(ctx context.Context, saleID int64) error {
	ctx, span := util.StartSpan(ctx, "SalesClient.MarkProcessed")
	defer span.End()

	url := fmt.Sprintf("%s/%d/procesar", c.baseURL, saleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to mark sale %d processed: %w", saleID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sales service returned status %d for %s", resp.StatusCode, url)
	}
	return nil
}
