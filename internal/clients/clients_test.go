package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartClientGetCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"userId":"42","totalItems":2,"totalPrice":"149.50","items":[{"productId":7,"quantity":2,"lineTotal":"149.50"}]}`))
	}))
	defer server.Close()

	client := NewCartClient(server.URL)
	cart, err := client.GetCart(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(7), cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "149.5", cart.TotalPrice.String())
}

func TestProductClientGetProductNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewProductClient(server.URL)
	_, err := client.GetProduct(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPeerNotFound))
}

func TestProductClientUnsuccessfulEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"no such product"}`))
	}))
	defer server.Close()

	client := NewProductClient(server.URL)
	_, err := client.GetProduct(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPeerNotFound))
}

func TestProductClientUpdateStockBody(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		assert.Equal(t, "/api/products/7/stock", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewProductClient(server.URL)
	require.NoError(t, client.UpdateStock(context.Background(), 7, -3))
	assert.JSONEq(t, `{"stockChange":-3}`, gotBody)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCartClient(server.URL)
	for i := 0; i < 6; i++ {
		_, err := client.GetCart(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPeerUnavailable))
	}
}

func TestUserAdminClientGetAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/5/addresses/12", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":12,"fullName":"Asha Rao","city":"Pune","phone":"9876543210"}`))
	}))
	defer server.Close()

	client := NewUserAdminClient(server.URL)
	address, err := client.GetAddress(context.Background(), 5, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), address.ID)
	assert.Equal(t, "Asha Rao", address.FullName)
}
