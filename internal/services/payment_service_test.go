package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/megamart/order-payment-service/internal/domain"
	gw "github.com/megamart/order-payment-service/internal/gateway"
	"github.com/megamart/order-payment-service/internal/repositories/memory"
)

type stubGateway struct {
	authorizeFn func(context.Context, domain.PaymentType) (gw.Authorization, error)
	calls       int
}

func (s *stubGateway) Authorize(ctx context.Context, paymentType domain.PaymentType) (gw.Authorization, error) {
	s.calls++
	if s.authorizeFn != nil {
		return s.authorizeFn(ctx, paymentType)
	}
	return gw.Authorization{Approved: true, Reference: "pay_TEST"}, nil
}

type paymentServiceFixture struct {
	service  PaymentService
	orders   OrderService
	store    *memory.Store
	gateway  *stubGateway
	userData UserDataService
}

func newPaymentServiceFixture(t *testing.T) paymentServiceFixture {
	t.Helper()

	store := memory.NewStore()
	locks := NewOrderLocks()
	gateway := &stubGateway{}
	userData := NewUserDataService(UserDataServiceDeps{
		HashCVV: func(cvv string) (string, error) { return "hashed:" + cvv, nil },
	})

	orders, err := NewOrderService(OrderServiceDeps{
		Orders:   store.Orders(),
		Payments: store.Payments(),
		Tracking: store.OrderTracking(),
		UserData: userData,
		Locks:    locks,
		Clock:    func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	txnSeq := 0
	service, err := NewPaymentService(PaymentServiceDeps{
		Payments: store.Payments(),
		Orders:   store.Orders(),
		UserData: userData,
		Gateway:  gateway,
		Locks:    locks,
		Clock:    func() time.Time { return time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC) },
		TransactionID: func() string {
			txnSeq++
			return fmt.Sprintf("TXN-%08d", txnSeq)
		},
	})
	if err != nil {
		t.Fatalf("new payment service: %v", err)
	}

	return paymentServiceFixture{service: service, orders: orders, store: store, gateway: gateway, userData: userData}
}

func (fx paymentServiceFixture) placeCODOrder(t *testing.T) domain.Order {
	t.Helper()
	details, err := fx.orders.Create(context.Background(), codOrderCommand())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return details.Order
}

func TestProcessPaymentSuccess(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	order := fx.placeCODOrder(t)

	methodID := int64(1)
	details, err := fx.service.Process(context.Background(), ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if details.Payment.Status != domain.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", details.Payment.Status)
	}
	if !strings.HasPrefix(details.Payment.TransactionID, "TXN-") {
		t.Fatalf("transaction id = %q", details.Payment.TransactionID)
	}

	stored, err := fx.store.Orders().FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if stored.Status != domain.OrderStatusConfirmed {
		t.Fatalf("order status = %s, want CONFIRMED", stored.Status)
	}
	if stored.PaymentStatus != domain.OrderPaymentCompleted {
		t.Fatalf("order payment status = %s, want COMPLETED", stored.PaymentStatus)
	}
}

func TestProcessPaymentDeclined(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	fx.gateway.authorizeFn = func(context.Context, domain.PaymentType) (gw.Authorization, error) {
		return gw.Authorization{Approved: false, Reference: "pay_TEST"}, nil
	}
	order := fx.placeCODOrder(t)

	methodID := int64(1)
	_, err := fx.service.Process(context.Background(), ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if !errors.Is(err, ErrPaymentProcessingFailed) {
		t.Fatalf("err = %v, want ErrPaymentProcessingFailed", err)
	}
	if !strings.Contains(err.Error(), "gateway declined") {
		t.Fatalf("err = %v", err)
	}

	// Failure is persisted; the order status itself stays for the operator.
	stored, _ := fx.store.Orders().FindByID(context.Background(), order.ID)
	if stored.PaymentStatus != domain.OrderPaymentFailed {
		t.Fatalf("order payment status = %s, want FAILED", stored.PaymentStatus)
	}
	if stored.Status != domain.OrderStatusPending {
		t.Fatalf("order status = %s, want PENDING", stored.Status)
	}
	payment, _ := fx.store.Payments().FindByOrderID(context.Background(), order.ID)
	if payment.Status != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want FAILED", payment.Status)
	}
}

func TestProcessPaymentRejectedForTerminalOrders(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	ctx := context.Background()
	methodID := int64(1)

	order := fx.placeCODOrder(t)
	if _, err := fx.orders.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := fx.service.Process(ctx, ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if !errors.Is(err, ErrPaymentProcessingFailed) || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("cancelled order err = %v", err)
	}
	if fx.gateway.calls != 0 {
		t.Fatalf("gateway called %d times for cancelled order", fx.gateway.calls)
	}

	second := fx.placeCODOrder(t)
	for _, status := range []string{"CONFIRMED", "PROCESSING", "SHIPPED", "DELIVERED"} {
		if _, err := fx.orders.UpdateStatus(ctx, UpdateOrderStatusCommand{OrderID: second.ID, Status: status}); err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}
	_, err = fx.service.Process(ctx, ProcessPaymentCommand{OrderID: second.ID, PaymentMethodID: &methodID})
	if !errors.Is(err, ErrPaymentProcessingFailed) || !strings.Contains(err.Error(), "delivered") {
		t.Fatalf("delivered order err = %v", err)
	}
}

func TestProcessPaymentOrderNotFound(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	methodID := int64(1)
	_, err := fx.service.Process(context.Background(), ProcessPaymentCommand{OrderID: 404, PaymentMethodID: &methodID})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestProcessPaymentRequiresMethod(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	_, err := fx.service.Process(context.Background(), ProcessPaymentCommand{OrderID: 1})
	if !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("err = %v, want ErrPaymentInvalidInput", err)
	}
}

func TestProcessPaymentReusesRecordWithFreshTransactionID(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	order := fx.placeCODOrder(t)
	methodID := int64(1)
	ctx := context.Background()

	first, err := fx.service.Process(ctx, ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := fx.service.Process(ctx, ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if first.Payment.ID != second.Payment.ID {
		t.Fatalf("payment record duplicated: %d vs %d", first.Payment.ID, second.Payment.ID)
	}
	if first.Payment.TransactionID == second.Payment.TransactionID {
		t.Fatalf("transaction id reused: %s", second.Payment.TransactionID)
	}
}

func TestProcessPaymentWithInlineMethodHashesCVV(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	order := fx.placeCODOrder(t)

	details, err := fx.service.Process(context.Background(), ProcessPaymentCommand{
		OrderID: order.ID,
		NewPaymentMethod: &NewPaymentMethod{
			Type:           "CARD",
			CardNumber:     "4111111111111111",
			CardholderName: "Asha Rao",
			ExpiryMonth:    "09",
			ExpiryYear:     "2028",
			CVV:            "123",
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if details.PaymentMethod.CardNumber != "****-****-****-1111" {
		t.Fatalf("card number = %q, want masked", details.PaymentMethod.CardNumber)
	}
	if details.PaymentMethod.CVVHash != "" {
		t.Fatal("cvv hash must never be returned")
	}
}

func TestGetPaymentLookups(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	order := fx.placeCODOrder(t)
	methodID := int64(1)
	ctx := context.Background()

	processed, err := fx.service.Process(ctx, ProcessPaymentCommand{OrderID: order.ID, PaymentMethodID: &methodID})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	byOrder, err := fx.service.GetByOrderID(ctx, order.ID)
	if err != nil {
		t.Fatalf("by order: %v", err)
	}
	if byOrder.Payment.TransactionID != processed.Payment.TransactionID {
		t.Fatalf("transaction mismatch: %s vs %s", byOrder.Payment.TransactionID, processed.Payment.TransactionID)
	}

	byTxn, err := fx.service.GetByTransactionID(ctx, processed.Payment.TransactionID)
	if err != nil {
		t.Fatalf("by transaction: %v", err)
	}
	if byTxn.Payment.OrderID != order.ID {
		t.Fatalf("order mismatch: %d", byTxn.Payment.OrderID)
	}

	if _, err := fx.service.GetByOrderID(ctx, 404); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("missing order payment err = %v", err)
	}
	if _, err := fx.service.GetByTransactionID(ctx, "TXN-NOPE"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("missing transaction err = %v", err)
	}
}

func TestClassifyRefund(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	ctx := context.Background()

	order := fx.placeCODOrder(t)
	_, err := fx.service.Process(ctx, ProcessPaymentCommand{
		OrderID: order.ID,
		NewPaymentMethod: &NewPaymentMethod{
			Type:       "CARD",
			CardNumber: "4111111111111111",
			CVV:        "123",
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	refund, err := fx.service.ClassifyRefund(ctx, order.ID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !refund.Supported || refund.RefundTime != "3-5 business days" {
		t.Fatalf("refund = %+v", refund)
	}
	if refund.RefundTo != "Original card ending in 1111" {
		t.Fatalf("refund to = %q", refund.RefundTo)
	}
}

func TestClassifyRefundRequiresCompletedPayment(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	order := fx.placeCODOrder(t)

	// The COD payment record starts PENDING, so refund classification rejects it.
	_, err := fx.service.ClassifyRefund(context.Background(), order.ID)
	if !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("err = %v, want ErrPaymentInvalidInput", err)
	}
}

func TestClassifyRefundUPIAndCOD(t *testing.T) {
	fx := newPaymentServiceFixture(t)
	ctx := context.Background()

	order := fx.placeCODOrder(t)
	_, err := fx.service.Process(ctx, ProcessPaymentCommand{
		OrderID:          order.ID,
		NewPaymentMethod: &NewPaymentMethod{Type: "UPI", UPIID: "asha@upi"},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	refund, err := fx.service.ClassifyRefund(ctx, order.ID)
	if err != nil {
		t.Fatalf("classify upi: %v", err)
	}
	if refund.RefundTime != "Instant to 2 hours" || refund.RefundTo != "asha@upi" {
		t.Fatalf("upi refund = %+v", refund)
	}

	second := fx.placeCODOrder(t)
	_, err = fx.service.Process(ctx, ProcessPaymentCommand{
		OrderID:          second.ID,
		NewPaymentMethod: &NewPaymentMethod{Type: "COD"},
	})
	if err != nil {
		t.Fatalf("process cod: %v", err)
	}
	refund, err = fx.service.ClassifyRefund(ctx, second.ID)
	if err != nil {
		t.Fatalf("classify cod: %v", err)
	}
	if refund.RefundMethod != "No refund needed" || refund.RefundTime != "N/A" {
		t.Fatalf("cod refund = %+v", refund)
	}
}
