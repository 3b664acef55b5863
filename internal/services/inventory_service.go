package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/megamart/order-payment-service/internal/clients"
)

var (
	// ErrStockInsufficient indicates the catalog holds less stock than requested.
	ErrStockInsufficient = errors.New("inventory: insufficient stock")
	// ErrProductNotFound indicates the product does not exist in the catalog.
	ErrProductNotFound = errors.New("inventory: product not found")
)

// InventoryService fronts the product catalog for stock checks and stock
// deltas. Availability checks are strict; delta application is best effort and
// never fails the calling operation.
type InventoryService interface {
	CheckAvailability(ctx context.Context, productID int64, quantity int) error
	// ApplyStockDelta applies a signed stock change: negative on placement,
	// positive on cancellation or restore. Failures are logged, not returned.
	ApplyStockDelta(ctx context.Context, productID int64, delta int)
}

// InventoryServiceDeps bundles collaborators for NewInventoryService.
type InventoryServiceDeps struct {
	Products clients.ProductClient
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	products clients.ProductClient
	logger   func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into a concrete InventoryService.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Products == nil {
		return nil, errors.New("inventory service: product client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &inventoryService{products: deps.Products, logger: logger}, nil
}

func (s *inventoryService) CheckAvailability(ctx context.Context, productID int64, quantity int) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if product.Stock < quantity {
		return fmt.Errorf("%w: product %d. Available: %d, Required: %d", ErrStockInsufficient, productID, product.Stock, quantity)
	}
	return nil
}

func (s *inventoryService) ApplyStockDelta(ctx context.Context, productID int64, delta int) {
	if err := s.products.UpdateStock(ctx, productID, delta); err != nil {
		s.logger(ctx, "inventory.stock.update.failed", map[string]any{
			"product": productID,
			"delta":   delta,
			"error":   err.Error(),
		})
		return
	}
	s.logger(ctx, "inventory.stock.updated", map[string]any{
		"product": productID,
		"delta":   delta,
	})
}
