package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megamart/order-payment-service/internal/domain"
	"github.com/megamart/order-payment-service/internal/gateway"
	"github.com/megamart/order-payment-service/internal/repositories"
)

var (
	// ErrPaymentInvalidInput signals the caller provided invalid data.
	ErrPaymentInvalidInput = errors.New("payment: invalid input")
	// ErrPaymentNotFound indicates no payment record exists for the lookup key.
	ErrPaymentNotFound = errors.New("payment: not found")
	// ErrPaymentProcessingFailed indicates the payment could not be captured,
	// either because the gateway declined or the order state forbids it.
	ErrPaymentProcessingFailed = errors.New("payment: processing failed")
)

// PaymentGateway authorises a charge for the given payment type.
type PaymentGateway interface {
	Authorize(ctx context.Context, paymentType domain.PaymentType) (gateway.Authorization, error)
}

// ProcessPaymentCommand carries a payment capture request. Exactly one of
// PaymentMethodID/NewPaymentMethod must be set.
type ProcessPaymentCommand struct {
	OrderID          int64
	PaymentMethodID  *int64
	NewPaymentMethod *NewPaymentMethod
}

// PaymentDetails is a payment record enriched with its payment method.
type PaymentDetails struct {
	Payment       domain.Payment
	PaymentMethod *domain.PaymentMethod
}

// RefundClassification is advisory text describing how a completed payment
// would be refunded. It mutates nothing.
type RefundClassification struct {
	OrderID       int64
	TransactionID string
	PaymentType   domain.PaymentType
	Amount        decimal.Decimal
	RefundMethod  string
	RefundTime    string
	RefundTo      string
	Message       string
	Supported     bool
}

// PaymentService owns payment capture through the gateway and payment reads.
type PaymentService interface {
	Process(ctx context.Context, cmd ProcessPaymentCommand) (PaymentDetails, error)
	GetByOrderID(ctx context.Context, orderID int64) (PaymentDetails, error)
	GetByTransactionID(ctx context.Context, transactionID string) (PaymentDetails, error)
	ClassifyRefund(ctx context.Context, orderID int64) (RefundClassification, error)
}

// PaymentServiceDeps bundles collaborators required to construct the payment service.
type PaymentServiceDeps struct {
	Payments      repositories.PaymentRepository
	Orders        repositories.OrderRepository
	UserData      UserDataService
	Gateway       PaymentGateway
	Locks         *OrderLocks
	Clock         func() time.Time
	TransactionID func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	payments repositories.PaymentRepository
	orders   repositories.OrderRepository
	userData UserDataService
	gateway  PaymentGateway
	locks    *OrderLocks
	clock    func() time.Time
	newTxnID func() string
	logger   func(context.Context, string, map[string]any)
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Payments == nil {
		return nil, errors.New("payment service: payment repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if deps.UserData == nil {
		return nil, errors.New("payment service: user data service is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment service: gateway is required")
	}
	if deps.Locks == nil {
		return nil, errors.New("payment service: order locks are required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	txnID := deps.TransactionID
	if txnID == nil {
		txnID = func() string {
			return "TXN-" + strings.ToUpper(uuid.NewString()[:8])
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		payments: deps.Payments,
		orders:   deps.Orders,
		userData: deps.UserData,
		gateway:  deps.Gateway,
		locks:    deps.Locks,
		clock: func() time.Time {
			return clock().UTC()
		},
		newTxnID: txnID,
		logger:   logger,
	}, nil
}

func (s *paymentService) Process(ctx context.Context, cmd ProcessPaymentCommand) (PaymentDetails, error) {
	if cmd.PaymentMethodID == nil && cmd.NewPaymentMethod == nil {
		return PaymentDetails{}, fmt.Errorf("%w: either paymentMethodId or newPaymentMethod must be provided", ErrPaymentInvalidInput)
	}

	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return PaymentDetails{}, s.mapRepositoryError(err)
	}
	switch order.Status {
	case domain.OrderStatusCancelled:
		return PaymentDetails{}, fmt.Errorf("%w: cannot process payment for cancelled order", ErrPaymentProcessingFailed)
	case domain.OrderStatusDelivered:
		return PaymentDetails{}, fmt.Errorf("%w: cannot process payment for delivered order", ErrPaymentProcessingFailed)
	}

	method, err := s.resolvePaymentMethod(ctx, order.UserID, cmd)
	if err != nil {
		return PaymentDetails{}, err
	}

	now := s.clock()
	payment, err := s.payments.FindByOrderID(ctx, cmd.OrderID)
	switch {
	case err == nil:
		payment.Amount = order.Total
		payment.PaymentMethodID = method.ID
		payment.Status = domain.PaymentStatusProcessing
		payment.PaymentDate = now
		payment.TransactionID = s.newTxnID()
		payment.UpdatedAt = now
		payment, err = s.payments.Update(ctx, payment)
	case isNotFound(err):
		payment, err = s.payments.Insert(ctx, domain.Payment{
			OrderID:         order.ID,
			UserID:          order.UserID,
			Amount:          order.Total,
			PaymentMethodID: method.ID,
			Status:          domain.PaymentStatusProcessing,
			PaymentDate:     now,
			TransactionID:   s.newTxnID(),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if err != nil {
		return PaymentDetails{}, s.mapRepositoryError(err)
	}

	auth, err := s.gateway.Authorize(ctx, method.Type)
	if err != nil {
		return PaymentDetails{}, err
	}

	if !auth.Approved {
		payment.Status = domain.PaymentStatusFailed
		payment.UpdatedAt = s.clock()
		if _, err := s.payments.Update(ctx, payment); err != nil {
			return PaymentDetails{}, s.mapRepositoryError(err)
		}
		order.PaymentStatus = domain.OrderPaymentFailed
		order.UpdatedAt = payment.UpdatedAt
		if _, err := s.orders.Update(ctx, order); err != nil {
			return PaymentDetails{}, s.mapRepositoryError(err)
		}
		s.logger(ctx, "payment.declined", map[string]any{
			"order":       order.ID,
			"transaction": payment.TransactionID,
			"gateway_ref": auth.Reference,
		})
		return PaymentDetails{}, fmt.Errorf("%w: payment gateway declined", ErrPaymentProcessingFailed)
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.UpdatedAt = s.clock()
	payment, err = s.payments.Update(ctx, payment)
	if err != nil {
		return PaymentDetails{}, s.mapRepositoryError(err)
	}

	order.PaymentStatus = domain.OrderPaymentCompleted
	order.Status = domain.OrderStatusConfirmed
	order.UpdatedAt = payment.UpdatedAt
	if _, err := s.orders.Update(ctx, order); err != nil {
		return PaymentDetails{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "payment.completed", map[string]any{
		"order":       order.ID,
		"transaction": payment.TransactionID,
		"amount":      payment.Amount.String(),
	})

	return PaymentDetails{Payment: payment, PaymentMethod: &method}, nil
}

func (s *paymentService) GetByOrderID(ctx context.Context, orderID int64) (PaymentDetails, error) {
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return PaymentDetails{}, s.mapPaymentLookupError(err)
	}
	return s.withMethod(ctx, payment), nil
}

func (s *paymentService) GetByTransactionID(ctx context.Context, transactionID string) (PaymentDetails, error) {
	payment, err := s.payments.FindByTransactionID(ctx, strings.TrimSpace(transactionID))
	if err != nil {
		return PaymentDetails{}, s.mapPaymentLookupError(err)
	}
	return s.withMethod(ctx, payment), nil
}

func (s *paymentService) ClassifyRefund(ctx context.Context, orderID int64) (RefundClassification, error) {
	details, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return RefundClassification{}, err
	}
	if details.Payment.Status != domain.PaymentStatusCompleted {
		return RefundClassification{}, fmt.Errorf("%w: cannot refund payment, payment status is: %s", ErrPaymentInvalidInput, details.Payment.Status)
	}

	classification := RefundClassification{
		OrderID:       details.Payment.OrderID,
		TransactionID: details.Payment.TransactionID,
		Amount:        details.Payment.Amount,
		Supported:     true,
	}
	var methodType domain.PaymentType
	if details.PaymentMethod != nil {
		methodType = details.PaymentMethod.Type
	}
	classification.PaymentType = methodType

	switch methodType {
	case domain.PaymentTypeCard:
		classification.RefundMethod = "Credit Card Refund"
		classification.RefundTime = "3-5 business days"
		if details.PaymentMethod != nil && len(details.PaymentMethod.CardNumber) >= 4 {
			classification.RefundTo = "Original card ending in " + details.PaymentMethod.CardNumber[len(details.PaymentMethod.CardNumber)-4:]
		}
		classification.Message = "Refund initiated to your card. It will appear in 3-5 business days."
	case domain.PaymentTypeUPI:
		classification.RefundMethod = "UPI Refund"
		classification.RefundTime = "Instant to 2 hours"
		if details.PaymentMethod != nil {
			classification.RefundTo = details.PaymentMethod.UPIID
		}
		classification.Message = "Refund initiated to your UPI account. It should appear within 2 hours."
	case domain.PaymentTypeCOD:
		classification.RefundMethod = "No refund needed"
		classification.RefundTime = "N/A"
		classification.Message = "No refund needed for Cash on Delivery orders."
	default:
		classification.Supported = false
		classification.Message = "Refund method not supported for this payment type."
	}
	return classification, nil
}

func (s *paymentService) resolvePaymentMethod(ctx context.Context, userID int64, cmd ProcessPaymentCommand) (domain.PaymentMethod, error) {
	if cmd.PaymentMethodID != nil {
		method, err := s.userData.GetPaymentMethod(ctx, userID, *cmd.PaymentMethodID)
		if err != nil {
			return domain.PaymentMethod{}, err
		}
		return method, nil
	}
	return s.userData.CreatePaymentMethod(ctx, userID, *cmd.NewPaymentMethod)
}

func (s *paymentService) withMethod(ctx context.Context, payment domain.Payment) PaymentDetails {
	details := PaymentDetails{Payment: payment}
	if payment.PaymentMethodID != 0 {
		if method, err := s.userData.GetPaymentMethod(ctx, payment.UserID, payment.PaymentMethodID); err == nil {
			details.PaymentMethod = &method
		}
	}
	return details
}

func (s *paymentService) mapRepositoryError(err error) error {
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
			return fmt.Errorf("payment: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *paymentService) mapPaymentLookupError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrPaymentNotFound, err)
	}
	return err
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
