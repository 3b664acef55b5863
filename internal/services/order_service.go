package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/megamart/order-payment-service/internal/clients"
	"github.com/megamart/order-payment-service/internal/domain"
	"github.com/megamart/order-payment-service/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
	LineTotal decimal.Decimal
}

// CreateOrderCommand carries everything needed to place an order directly.
// Exactly one of AddressID/NewAddress must be set, same for the payment
// method pair.
type CreateOrderCommand struct {
	UserID           int64
	Total            decimal.Decimal
	PaymentType      string
	Items            []OrderItemInput
	AddressID        *int64
	NewAddress       *NewAddress
	PaymentMethodID  *int64
	NewPaymentMethod *NewPaymentMethod
}

// UpdateOrderStatusCommand carries an operator-initiated status change.
type UpdateOrderStatusCommand struct {
	OrderID    int64
	Status     string
	LocationID *int64
	Notes      string
	UpdatedBy  string
}

// OrderDetails is an order enriched with its resolved address, payment method
// and, best effort, customer profile data.
type OrderDetails struct {
	Order         domain.Order
	Address       *domain.Address
	PaymentMethod *domain.PaymentMethod
	Payment       *domain.Payment
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// OrderService owns the order lifecycle: creation, enrichment, status
// transitions, cancellation with compensation and admin deletion.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (OrderDetails, error)
	CreateFromCart(ctx context.Context, userID int64, address NewAddress, method NewPaymentMethod) (OrderDetails, error)
	Get(ctx context.Context, orderID int64) (OrderDetails, error)
	ListByUser(ctx context.Context, userID int64, page, size int) (domain.Page[OrderDetails], error)
	ListAll(ctx context.Context, page, size int) (domain.Page[OrderDetails], error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (OrderDetails, error)
	Cancel(ctx context.Context, orderID int64) (OrderDetails, error)
	Delete(ctx context.Context, orderID int64) error
	TrackingHistory(ctx context.Context, orderID int64) ([]domain.OrderTracking, error)
	StatusCounts(ctx context.Context) (map[domain.OrderStatus]int64, error)
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders    repositories.OrderRepository
	Payments  repositories.PaymentRepository
	Tracking  repositories.OrderTrackingRepository
	UserData  UserDataService
	Inventory InventoryService
	Carts     clients.CartClient
	Users     clients.UserAdminClient
	Locks     *OrderLocks
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	payments  repositories.PaymentRepository
	tracking  repositories.OrderTrackingRepository
	userData  UserDataService
	inventory InventoryService
	carts     clients.CartClient
	users     clients.UserAdminClient
	locks     *OrderLocks
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("order service: payment repository is required")
	}
	if deps.Tracking == nil {
		return nil, errors.New("order service: tracking repository is required")
	}
	if deps.UserData == nil {
		return nil, errors.New("order service: user data service is required")
	}
	if deps.Locks == nil {
		return nil, errors.New("order service: order locks are required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		payments:  deps.Payments,
		tracking:  deps.Tracking,
		userData:  deps.UserData,
		inventory: deps.Inventory,
		carts:     deps.Carts,
		users:     deps.Users,
		locks:     deps.Locks,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (OrderDetails, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return OrderDetails{}, err
	}

	paymentType, _ := domain.ParsePaymentType(cmd.PaymentType)

	address, err := s.resolveAddress(ctx, cmd)
	if err != nil {
		return OrderDetails{}, err
	}
	method, err := s.resolvePaymentMethod(ctx, cmd)
	if err != nil {
		return OrderDetails{}, err
	}

	now := s.clock()
	paymentStatus := domain.OrderPaymentCompleted
	if paymentType == domain.PaymentTypeCOD {
		paymentStatus = domain.OrderPaymentPending
	}

	order := domain.Order{
		UserID:            cmd.UserID,
		Total:             cmd.Total,
		PaymentType:       paymentType,
		Status:            domain.OrderStatusPending,
		PaymentStatus:     paymentStatus,
		OrderDate:         now,
		ShippingAddressID: address.ID,
		Shipping: domain.ShippingSnapshot{
			FullName:     address.FullName,
			AddressLine1: address.AddressLine1,
			AddressLine2: address.AddressLine2,
			City:         address.City,
			State:        address.State,
			PostalCode:   address.PostalCode,
			Country:      address.Country,
			Phone:        address.Phone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range cmd.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	saved, err := s.orders.Insert(ctx, order)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	payment := domain.Payment{
		OrderID:         saved.ID,
		UserID:          saved.UserID,
		Amount:          saved.Total,
		PaymentMethodID: method.ID,
		Status:          paymentRecordStatus(paymentType),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	savedPayment, err := s.payments.Insert(ctx, payment)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.created", map[string]any{
		"order":          saved.ID,
		"user":           saved.UserID,
		"payment_type":   string(paymentType),
		"payment_status": string(paymentStatus),
	})

	return OrderDetails{
		Order:         saved,
		Address:       &address,
		PaymentMethod: &method,
		Payment:       &savedPayment,
	}, nil
}

func (s *orderService) CreateFromCart(ctx context.Context, userID int64, address NewAddress, method NewPaymentMethod) (OrderDetails, error) {
	if s.carts == nil {
		return OrderDetails{}, fmt.Errorf("%w: cart service is not configured", ErrOrderInvalidInput)
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return OrderDetails{}, err
		}
		s.logger(ctx, "order.cart.fetch.failed", map[string]any{"user": userID, "error": err.Error()})
		return OrderDetails{}, fmt.Errorf("%w: unable to retrieve cart for user: %d", ErrOrderInvalidInput, userID)
	}
	if len(cart.Items) == 0 {
		return OrderDetails{}, fmt.Errorf("%w: cart is empty", ErrOrderInvalidInput)
	}

	// Atomic pre-check: any shortfall fails the whole operation before
	// anything is persisted.
	if s.inventory != nil {
		for _, item := range cart.Items {
			if err := s.inventory.CheckAvailability(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return OrderDetails{}, err
				}
				return OrderDetails{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
			}
		}
	}

	cmd := CreateOrderCommand{
		UserID:           userID,
		Total:            cart.TotalPrice,
		PaymentType:      method.Type,
		NewAddress:       &address,
		NewPaymentMethod: &method,
	}
	for _, item := range cart.Items {
		cmd.Items = append(cmd.Items, OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	details, err := s.Create(ctx, cmd)
	if err != nil {
		return OrderDetails{}, err
	}

	// Stock reduction and cart clearing are best effort: the order is already
	// placed and a failure here must not roll it back.
	if s.inventory != nil {
		for _, item := range cart.Items {
			s.inventory.ApplyStockDelta(ctx, item.ProductID, -item.Quantity)
		}
	}
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger(ctx, "order.cart.clear.failed", map[string]any{"user": userID, "error": err.Error()})
	}

	return details, nil
}

func (s *orderService) Get(ctx context.Context, orderID int64) (OrderDetails, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	details := s.enrich(ctx, order)

	if s.users != nil {
		user, err := s.users.GetUser(ctx, order.UserID)
		if err != nil {
			s.logger(ctx, "order.user.fetch.failed", map[string]any{"user": order.UserID, "error": err.Error()})
		} else {
			details.CustomerName = user.Name
			details.CustomerEmail = user.Email
			details.CustomerPhone = user.Phone
		}
	}
	return details, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID int64, page, size int) (domain.Page[OrderDetails], error) {
	result, err := s.orders.List(ctx, repositories.OrderListFilter{UserID: userID, Page: page, Size: size})
	if err != nil {
		return domain.Page[OrderDetails]{}, s.mapRepositoryError(err)
	}
	return s.enrichPage(ctx, result), nil
}

func (s *orderService) ListAll(ctx context.Context, page, size int) (domain.Page[OrderDetails], error) {
	result, err := s.orders.List(ctx, repositories.OrderListFilter{Page: page, Size: size})
	if err != nil {
		return domain.Page[OrderDetails]{}, s.mapRepositoryError(err)
	}

	// Admin rows carry the denormalised shipping snapshot and the payment
	// status already on the order; no per-row address or payment-method
	// resolution.
	out := domain.Page[OrderDetails]{
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
	}
	for _, order := range result.Items {
		out.Items = append(out.Items, OrderDetails{Order: order})
	}
	return out, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (OrderDetails, error) {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	newStatus, ok := domain.ParseOrderStatus(cmd.Status)
	if !ok {
		return OrderDetails{}, fmt.Errorf("%w: invalid order status: %s. Valid statuses: PENDING, CONFIRMED, PROCESSING, SHIPPED, DELIVERED, CANCELLED", ErrOrderInvalidInput, cmd.Status)
	}
	if !domain.CanTransition(order.Status, newStatus) {
		return OrderDetails{}, fmt.Errorf("%w: cannot change status from %s to %s. Allowed transitions: %s",
			ErrOrderInvalidState, order.Status, newStatus, domain.AllowedTransitionsLabel(order.Status))
	}

	previous := order.Status
	order.Status = newStatus
	order.UpdatedAt = s.clock()

	saved, err := s.orders.Update(ctx, order)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	if cmd.LocationID != nil || strings.TrimSpace(cmd.Notes) != "" {
		s.appendTracking(ctx, saved.ID, newStatus, cmd.LocationID, cmd.Notes, cmd.UpdatedBy)
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"order": saved.ID,
		"from":  string(previous),
		"to":    string(newStatus),
	})

	return s.enrich(ctx, saved), nil
}

func (s *orderService) Cancel(ctx context.Context, orderID int64) (OrderDetails, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}
	if err := checkCancellable(order.Status); err != nil {
		return OrderDetails{}, err
	}

	// Compensation: stock first, then the state flip. Stock restoration is
	// best effort and must not abort the cancellation.
	s.restoreStock(ctx, order)

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = s.clock()

	payment, paymentErr := s.payments.FindByOrderID(ctx, orderID)
	if paymentErr == nil && payment.Status == domain.PaymentStatusCompleted {
		payment.Status = domain.PaymentStatusRefunded
		payment.UpdatedAt = order.UpdatedAt
		if _, err := s.payments.Update(ctx, payment); err != nil {
			return OrderDetails{}, s.mapRepositoryError(err)
		}
		order.PaymentStatus = domain.OrderPaymentRefunded
	}

	saved, err := s.orders.Update(ctx, order)
	if err != nil {
		return OrderDetails{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.cancelled", map[string]any{"order": saved.ID, "user": saved.UserID})
	return s.enrich(ctx, saved), nil
}

func (s *orderService) Delete(ctx context.Context, orderID int64) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	if order.Status != domain.OrderStatusDelivered {
		s.restoreStock(ctx, order)
	}

	if err := s.tracking.DeleteByOrder(ctx, orderID); err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.payments.DeleteByOrder(ctx, orderID); err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.deleted", map[string]any{"order": orderID})
	return nil
}

func (s *orderService) TrackingHistory(ctx context.Context, orderID int64) ([]domain.OrderTracking, error) {
	entries, err := s.tracking.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

func (s *orderService) StatusCounts(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return counts, nil
}

func validateCreateCommand(cmd CreateOrderCommand) error {
	if cmd.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if cmd.Total.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: total must be positive", ErrOrderInvalidInput)
	}
	if _, ok := domain.ParsePaymentType(cmd.PaymentType); !ok {
		return fmt.Errorf("%w: unsupported payment type: %s", ErrOrderInvalidInput, cmd.PaymentType)
	}
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	for _, item := range cmd.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: item product id is required", ErrOrderInvalidInput)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrOrderInvalidInput)
		}
		if item.LineTotal.Cmp(decimal.Zero) <= 0 {
			return fmt.Errorf("%w: item line total must be positive", ErrOrderInvalidInput)
		}
	}
	if cmd.AddressID == nil && cmd.NewAddress == nil {
		return fmt.Errorf("%w: either addressId or newAddress must be provided", ErrOrderInvalidInput)
	}
	if cmd.PaymentMethodID == nil && cmd.NewPaymentMethod == nil {
		return fmt.Errorf("%w: either paymentMethodId or newPaymentMethod must be provided", ErrOrderInvalidInput)
	}
	return nil
}

func checkCancellable(status domain.OrderStatus) error {
	switch status {
	case domain.OrderStatusDelivered:
		return fmt.Errorf("%w: cannot cancel delivered order", ErrOrderInvalidState)
	case domain.OrderStatusShipped:
		return fmt.Errorf("%w: cannot cancel shipped order. Order is already in transit", ErrOrderInvalidState)
	case domain.OrderStatusCancelled:
		return fmt.Errorf("%w: order is already cancelled", ErrOrderInvalidState)
	}
	if !domain.Cancellable(status) {
		return fmt.Errorf("%w: cannot cancel order in %s status", ErrOrderInvalidState, status)
	}
	return nil
}

func paymentRecordStatus(paymentType domain.PaymentType) domain.PaymentStatus {
	if paymentType == domain.PaymentTypeCOD {
		return domain.PaymentStatusPending
	}
	return domain.PaymentStatusCompleted
}

func (s *orderService) resolveAddress(ctx context.Context, cmd CreateOrderCommand) (domain.Address, error) {
	if cmd.AddressID != nil {
		return s.userData.GetAddress(ctx, cmd.UserID, *cmd.AddressID)
	}
	return s.userData.CreateAddress(ctx, cmd.UserID, *cmd.NewAddress)
}

func (s *orderService) resolvePaymentMethod(ctx context.Context, cmd CreateOrderCommand) (domain.PaymentMethod, error) {
	if cmd.PaymentMethodID != nil {
		return s.userData.GetPaymentMethod(ctx, cmd.UserID, *cmd.PaymentMethodID)
	}
	return s.userData.CreatePaymentMethod(ctx, cmd.UserID, *cmd.NewPaymentMethod)
}

// enrich resolves the address and payment method for display. Failures are
// tolerated: the order itself is the source of truth.
func (s *orderService) enrich(ctx context.Context, order domain.Order) OrderDetails {
	details := OrderDetails{Order: order}

	if order.ShippingAddressID != 0 {
		if address, err := s.userData.GetAddress(ctx, order.UserID, order.ShippingAddressID); err == nil {
			details.Address = &address
		}
	}
	if payment, err := s.payments.FindByOrderID(ctx, order.ID); err == nil {
		details.Payment = &payment
		if payment.PaymentMethodID != 0 {
			if method, err := s.userData.GetPaymentMethod(ctx, order.UserID, payment.PaymentMethodID); err == nil {
				details.PaymentMethod = &method
			}
		}
	}
	return details
}

func (s *orderService) enrichPage(ctx context.Context, page domain.Page[domain.Order]) domain.Page[OrderDetails] {
	out := domain.Page[OrderDetails]{
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
	for _, order := range page.Items {
		out.Items = append(out.Items, s.enrich(ctx, order))
	}
	return out
}

func (s *orderService) restoreStock(ctx context.Context, order domain.Order) {
	if s.inventory == nil {
		return
	}
	for _, item := range order.Items {
		s.inventory.ApplyStockDelta(ctx, item.ProductID, item.Quantity)
	}
}

func (s *orderService) appendTracking(ctx context.Context, orderID int64, status domain.OrderStatus, locationID *int64, notes, updatedBy string) {
	location := ""
	if locationID != nil {
		location = fmt.Sprintf("Location ID: %d", *locationID)
	}
	if strings.TrimSpace(updatedBy) == "" {
		updatedBy = "Admin"
	}

	entry := domain.OrderTracking{
		OrderID:         orderID,
		Status:          string(status),
		Location:        location,
		Description:     fmt.Sprintf("Status updated to %s", status),
		ProcessingNotes: strings.TrimSpace(notes),
		UpdatedBy:       updatedBy,
		CreatedAt:       s.clock(),
	}
	if _, err := s.tracking.Append(ctx, entry); err != nil {
		s.logger(ctx, "order.tracking.append.failed", map[string]any{"order": orderID, "error": err.Error()})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}
