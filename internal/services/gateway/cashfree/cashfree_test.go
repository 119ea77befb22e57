package cashfree

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pg/orders", r.URL.Path)
		assert.Equal(t, "app-id", r.Header.Get("x-client-id"))
		assert.Equal(t, "secret", r.Header.Get("x-client-secret"))
		assert.Equal(t, apiVersion, r.Header.Get("x-api-version"))

		var form OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "order_1_AB", form.OrderID)
		assert.Equal(t, "INR", form.OrderCurrency)
		assert.Equal(t, "https://fest.example/return", form.OrderMeta.ReturnURL)

		json.NewEncoder(w).Encode(Order{
			OrderID:          form.OrderID,
			OrderAmount:      form.OrderAmount,
			OrderStatus:      OrderStatusActive,
			PaymentSessionID: "session-xyz",
		})
	}))
	defer srv.Close()

	client := NewClient(&Config{
		BaseURL:   srv.URL,
		AppID:     "app-id",
		SecretKey: "secret",
		ReturnURL: "https://fest.example/return",
	})

	order, err := client.CreateOrder(context.Background(), &OrderRequest{
		OrderID:       "order_1_AB",
		OrderAmount:   decimal.NewFromInt(500),
		OrderCurrency: "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1_AB", order.OrderID)
	assert.Equal(t, "session-xyz", order.PaymentSessionID)
}

func TestClient_CreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"authentication failed"}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})

	_, err := client.CreateOrder(context.Background(), &OrderRequest{OrderID: "order_1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_CreateOrder_MissingSessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"order_id": "order_1"})
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})

	_, err := client.CreateOrder(context.Background(), &OrderRequest{OrderID: "order_1"})
	assert.Error(t, err)
}

func TestClient_OrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/pg/orders/order_42", r.URL.Path)

		json.NewEncoder(w).Encode(Order{
			OrderID:     "order_42",
			OrderStatus: OrderStatusPaid,
		})
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})

	order, err := client.OrderStatus(context.Background(), "order_42")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, order.OrderStatus)
}
