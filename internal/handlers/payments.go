package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/megamart/order-payment-service/internal/platform/httpx"
	"github.com/megamart/order-payment-service/internal/services"
)

type processPaymentRequest struct {
	OrderID          int64                 `json:"orderId" validate:"required,gt=0"`
	PaymentMethodID  *int64                `json:"paymentMethodId"`
	NewPaymentMethod *paymentMethodRequest `json:"newPaymentMethod"`
}

// PaymentHandlers exposes payment capture, lookup and refund endpoints.
type PaymentHandlers struct {
	payments services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandlers constructs a new PaymentHandlers instance.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{
		payments: payments,
		validate: validator.New(),
	}
}

// Routes registers the /api/payments endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/process", h.processPayment)
	r.Post("/refund/{orderID}", h.refundPayment)
	r.Get("/order/{orderID}", h.getPaymentByOrder)
	r.Get("/transaction/{transactionID}", h.getPaymentByTransaction)
}

func (h *PaymentHandlers) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req processPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	cmd := services.ProcessPaymentCommand{
		OrderID:         req.OrderID,
		PaymentMethodID: req.PaymentMethodID,
	}
	if req.NewPaymentMethod != nil {
		method := buildNewPaymentMethod(*req.NewPaymentMethod)
		cmd.NewPaymentMethod = &method
	}

	details, err := h.payments.Process(ctx, cmd)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPaymentPayload(details.Payment, details.PaymentMethod))
}

func (h *PaymentHandlers) refundPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	refund, err := h.payments.ClassifyRefund(ctx, orderID)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, refundPayload{
		OrderID:               refund.OrderID,
		OriginalTransactionID: refund.TransactionID,
		PaymentType:           string(refund.PaymentType),
		RefundAmount:          refund.Amount,
		RefundMethod:          refund.RefundMethod,
		RefundTime:            refund.RefundTime,
		RefundTo:              refund.RefundTo,
		Message:               refund.Message,
	})
}

func (h *PaymentHandlers) getPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	details, err := h.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPaymentPayload(details.Payment, details.PaymentMethod))
}

func (h *PaymentHandlers) getPaymentByTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	transactionID := strings.TrimSpace(chi.URLParam(r, "transactionID"))
	if transactionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "transactionID is required", http.StatusBadRequest))
		return
	}

	details, err := h.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPaymentPayload(details.Payment, details.PaymentMethod))
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentProcessingFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_processing_failed", err.Error(), http.StatusPaymentRequired))
	case errors.Is(err, services.ErrPaymentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_found", "payment not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentMethodNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrValidationFailed):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", "failed to process payment request", http.StatusInternalServerError))
	}
}
