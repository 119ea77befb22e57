package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// apiVersion is the Cashfree PG API version sent on every request.
const apiVersion = "2023-08-01"

// Gateway order statuses as reported by Cashfree.
const (
	OrderStatusActive     = "ACTIVE"
	OrderStatusPaid       = "PAID"
	OrderStatusExpired    = "EXPIRED"
	OrderStatusTerminated = "TERMINATED"
)

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	AppID     string `json:"appId" mapstructure:"app_id"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
	ReturnURL string `json:"returnUrl" mapstructure:"return_url"`
	Timeout   time.Duration
}

type Client struct {
	// baseURL is the base url of the Cashfree PG backend.
	baseURL string

	// appID is the x-client-id credential.
	appID string

	// secretKey is the x-client-secret credential.
	secretKey string

	// returnURL is where the gateway redirects the payer after checkout.
	returnURL string

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a new Cashfree PG client.
func NewClient(c *Config) *Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   c.BaseURL,
		appID:     c.AppID,
		secretKey: c.SecretKey,
		returnURL: c.ReturnURL,

		// set http client with timeout so a slow gateway cannot hang
		// the request indefinitely.
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

type (
	OrderRequest struct {
		OrderID       string          `json:"order_id"`
		OrderAmount   decimal.Decimal `json:"order_amount"`
		OrderCurrency string          `json:"order_currency"`
		OrderNote     string          `json:"order_note,omitempty"`

		CustomerDetails CustomerDetails `json:"customer_details"`
		OrderMeta       OrderMeta       `json:"order_meta"`
	}

	CustomerDetails struct {
		CustomerID    string `json:"customer_id"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
		CustomerPhone string `json:"customer_phone"`
	}

	OrderMeta struct {
		ReturnURL string `json:"return_url,omitempty"`
	}

	Order struct {
		OrderID          string          `json:"order_id"`
		OrderAmount      decimal.Decimal `json:"order_amount"`
		OrderStatus      string          `json:"order_status"`
		PaymentSessionID string          `json:"payment_session_id"`
	}
)

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)
}

// CreateOrder creates a gateway order and returns the order together with
// the payment session id the client SDK needs to open checkout.
func (c *Client) CreateOrder(ctx context.Context, form *OrderRequest) (*Order, error) {
	if form.OrderMeta.ReturnURL == "" {
		form.OrderMeta.ReturnURL = c.returnURL
	}

	b, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("createOrder: json.Marshal: %w", err)
	}
	body := bytes.NewBuffer(b)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/pg/orders", c.baseURL), body)
	if err != nil {
		return nil, fmt.Errorf("createOrder: http.NewRequestWithContext: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createOrder: c.hc.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("createOrder: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply Order
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("createOrder: json.Decode: %w", err)
	}

	if reply.OrderID == "" || reply.PaymentSessionID == "" {
		return nil, fmt.Errorf("createOrder: gateway reply missing order_id or payment_session_id")
	}

	return &reply, nil
}

// OrderStatus fetches the current gateway status of an order. Used as the
// polling fallback when the payer is redirected back before the webhook
// has arrived.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/pg/orders/%s", c.baseURL, orderID), nil)
	if err != nil {
		return nil, fmt.Errorf("orderStatus: http.NewRequestWithContext: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orderStatus: c.hc.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orderStatus: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply Order
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("orderStatus: json.Decode: %w", err)
	}

	return &reply, nil
}
