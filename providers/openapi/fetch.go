// Package openapi fetches scholarship records from the Korean public data
// portal (odcloud) dataset.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"scholarmate/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Client pages through the scholarship dataset.
type Client struct {
	baseURL    string
	serviceKey string
	pageSize   int
	maxPages   int
	logger     *zap.Logger
}

// NewClient builds a client from config.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.ScholarshipAPIURL,
		serviceKey: cfg.ServiceKey,
		pageSize:   cfg.SyncPageSize,
		maxPages:   cfg.SyncMaxPages,
		logger:     logger,
	}
}

// FetchPage retrieves a single page. An empty data array signals the end.
func (c *Client) FetchPage(ctx context.Context, page int) ([]Record, int, error) {
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(c.pageSize))
	params.Set("returnType", "JSON")

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("page %d: unexpected status %d: %s", page, resp.StatusCode, body)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode page %d: %w", page, err)
	}
	return out.Data, out.TotalCount, nil
}

// FetchAll pages through the dataset until it is exhausted or the hard page
// cap is reached, so a misbehaving upstream cannot make us loop forever.
func (c *Client) FetchAll(ctx context.Context) ([]Record, error) {
	var all []Record
	for page := 1; page <= c.maxPages; page++ {
		batch, total, err := c.FetchPage(ctx, page)
		if err != nil {
			return all, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		c.logger.Debug("Fetched scholarship page",
			zap.Int("page", page), zap.Int("records", len(batch)), zap.Int("total", total))
		if len(batch) < c.pageSize {
			break
		}
	}
	return all, nil
}
