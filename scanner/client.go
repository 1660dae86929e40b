package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"self-checkout/models"
)

// ErrConnection marks failures to reach the cart service at all.
var ErrConnection = errors.New("cannot connect to cart service")

type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// APIError is a non-2xx answer from the cart service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cart service returned %d: %s", e.StatusCode, e.Message)
}

type SystemStatus struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	ActiveConnections int    `json:"active_connections"`
	ActiveCarts       int    `json:"active_carts"`
}

// Client talks to the cart service HTTP API. Requests are not retried.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) AddItem(ctx context.Context, sessionID, productID string, quantity int) (models.AddToCartResponse, error) {
	var resp models.AddToCartResponse
	req := models.AddToCartRequest{ProductID: productID, Quantity: quantity, SessionID: sessionID}
	err := c.do(ctx, http.MethodPost, "/api/add-to-cart", req, &resp)
	return resp, err
}

func (c *Client) AddBatch(ctx context.Context, sessionID string, items []models.BatchItem) (models.AddBatchResponse, error) {
	var resp models.AddBatchResponse
	req := models.AddBatchRequest{Items: items, SessionID: sessionID}
	err := c.do(ctx, http.MethodPost, "/api/add-batch-to-cart", req, &resp)
	return resp, err
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &products)
	return products, err
}

func (c *Client) Status(ctx context.Context) (SystemStatus, error) {
	var status SystemStatus
	err := c.do(ctx, http.MethodGet, "/api/system-status", nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		msg := "Unknown error"
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
