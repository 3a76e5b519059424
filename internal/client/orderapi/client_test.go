package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/domain"
)

func request() domain.OrderRequest {
	return domain.OrderRequest{
		OrderItems:      []domain.LineItem{{ID: "p1", Name: "Shirt", Price: 100, Quantity: 1}},
		ShippingAddress: &domain.Address{FullName: "Ann", Address: "1 Main", City: "Oslo", PostalCode: "0150", Country: "NO"},
		PaymentMethod:   "PayPal",
		OrderTotals:     domain.OrderTotals{ItemsPrice: 100, ShippingPrice: 15, TaxPrice: 15, TotalPrice: 130},
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 130.0, body["totalPrice"])
		assert.Equal(t, "PayPal", body["paymentMethod"])
		assert.Contains(t, body, "orderItems")
		assert.Contains(t, body, "shippingAddress")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"o-1","totalPrice":130}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL+"/", time.Second, nil)
	require.NoError(t, err)
	order, err := client.PlaceOrder(context.Background(), domain.Session{UserID: "u1", Token: "tok"}, request())
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
}

func TestPlaceOrderErrorMessagePassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"No order items"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, time.Second, nil)
	require.NoError(t, err)
	_, err = client.PlaceOrder(context.Background(), domain.Session{}, request())
	require.Error(t, err)
	assert.Equal(t, "No order items", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestPlaceOrderPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := New(srv.URL, time.Second, nil)
	_, err := client.PlaceOrder(context.Background(), domain.Session{}, request())
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.Error())
}

func TestPlaceOrderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client, _ := New(srv.URL, 50*time.Millisecond, nil)
	_, err := client.PlaceOrder(context.Background(), domain.Session{}, request())
	require.Error(t, err)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New("  ", time.Second, nil)
	assert.Error(t, err)
}
