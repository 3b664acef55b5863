package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Product is the catalog view of one product.
type Product struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	Brand    string          `json:"brand"`
}

type productEnvelope struct {
	Success bool    `json:"success"`
	Data    Product `json:"data"`
	Message string  `json:"message"`
}

// ProductClient talks to the product catalog service.
type ProductClient interface {
	GetProduct(ctx context.Context, productID int64) (Product, error)
	// UpdateStock applies a signed stock delta. Negative reserves stock,
	// positive restores it.
	UpdateStock(ctx context.Context, productID int64, delta int) error
}

type productClient struct {
	peer *httpPeer
}

// NewProductClient builds a ProductClient against the given base URL.
func NewProductClient(baseURL string, opts ...Option) ProductClient {
	return &productClient{peer: newHTTPPeer("product-service", baseURL, opts...)}
}

func (c *productClient) GetProduct(ctx context.Context, productID int64) (Product, error) {
	var envelope productEnvelope
	if err := c.peer.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil, &envelope); err != nil {
		return Product{}, err
	}
	if !envelope.Success {
		return Product{}, fmt.Errorf("%w: product %d (%s)", ErrPeerNotFound, productID, envelope.Message)
	}
	return envelope.Data, nil
}

func (c *productClient) UpdateStock(ctx context.Context, productID int64, delta int) error {
	body := map[string]int{"stockChange": delta}
	return c.peer.do(ctx, http.MethodPost, fmt.Sprintf("/api/products/%d/stock", productID), body, nil)
}
