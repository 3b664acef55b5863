package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Cart is the remote cart snapshot returned by the cart service.
type Cart struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"userId"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// CartItem is one cart line.
type CartItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartClient talks to the cart service.
type CartClient interface {
	GetCart(ctx context.Context, userID int64) (Cart, error)
	ClearCart(ctx context.Context, userID int64) error
}

type cartClient struct {
	peer *httpPeer
}

// NewCartClient builds a CartClient against the given base URL.
func NewCartClient(baseURL string, opts ...Option) CartClient {
	return &cartClient{peer: newHTTPPeer("cart-service", baseURL, opts...)}
}

func (c *cartClient) GetCart(ctx context.Context, userID int64) (Cart, error) {
	var cart Cart
	if err := c.peer.do(ctx, http.MethodGet, fmt.Sprintf("/cart/%d", userID), nil, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (c *cartClient) ClearCart(ctx context.Context, userID int64) error {
	return c.peer.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", userID), nil, nil)
}
