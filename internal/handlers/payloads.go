package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/megamart/order-payment-service/internal/domain"
	"github.com/megamart/order-payment-service/internal/platform/httpx"
	"github.com/megamart/order-payment-service/internal/services"
)

type orderItemPayload struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type shippingAddressPayload struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

type paymentMethodPayload struct {
	ID             int64  `json:"id"`
	Type           string `json:"type"`
	CardNumber     string `json:"cardNumber,omitempty"`
	CardholderName string `json:"cardholderName,omitempty"`
	ExpiryMonth    string `json:"expiryMonth,omitempty"`
	ExpiryYear     string `json:"expiryYear,omitempty"`
	UPIID          string `json:"upiId,omitempty"`
	IsDefault      bool   `json:"isDefault"`
}

type paymentPayload struct {
	ID            int64                 `json:"id"`
	OrderID       int64                 `json:"orderId"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentStatus string                `json:"paymentStatus"`
	PaymentDate   *time.Time            `json:"paymentDate,omitempty"`
	TransactionID string                `json:"transactionId,omitempty"`
	PaymentMethod *paymentMethodPayload `json:"paymentMethod,omitempty"`
}

type orderPayload struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Total         decimal.Decimal `json:"total"`
	PaymentType   string          `json:"paymentType"`
	OrderStatus   string          `json:"orderStatus"`
	PaymentStatus string          `json:"paymentStatus"`
	OrderDate     time.Time       `json:"orderDate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	ShippingAddress *shippingAddressPayload `json:"shippingAddress,omitempty"`
	OrderItems      []orderItemPayload      `json:"orderItems"`
	Payment         *paymentPayload         `json:"payment,omitempty"`

	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

type pagePayload[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type trackingEntryPayload struct {
	ID              int64     `json:"id"`
	OrderID         int64     `json:"orderId"`
	Status          string    `json:"status"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description,omitempty"`
	ProcessingNotes string    `json:"processingNotes,omitempty"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type trackingHistoryPayload struct {
	OrderID         int64                  `json:"orderId"`
	TrackingHistory []trackingEntryPayload `json:"trackingHistory"`
}

type processingLocationPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Active  bool   `json:"active"`
}

type refundPayload struct {
	OrderID               int64           `json:"orderId"`
	OriginalTransactionID string          `json:"originalTransactionId"`
	PaymentType           string          `json:"paymentType"`
	RefundAmount          decimal.Decimal `json:"refundAmount"`
	RefundMethod          string          `json:"refundMethod,omitempty"`
	RefundTime            string          `json:"refundTime,omitempty"`
	RefundTo              string          `json:"refundTo,omitempty"`
	Message               string          `json:"message"`
}

type orderDeletePayload struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

func buildOrderPayload(details services.OrderDetails) orderPayload {
	order := details.Order

	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	payload := orderPayload{
		ID:            order.ID,
		UserID:        order.UserID,
		Total:         order.Total,
		PaymentType:   string(order.PaymentType),
		OrderStatus:   string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		OrderDate:     order.OrderDate,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		OrderItems:    items,
		CustomerName:  details.CustomerName,
		CustomerEmail: details.CustomerEmail,
		CustomerPhone: details.CustomerPhone,
	}

	if !order.Shipping.IsZero() {
		payload.ShippingAddress = &shippingAddressPayload{
			FullName:     order.Shipping.FullName,
			AddressLine1: order.Shipping.AddressLine1,
			AddressLine2: order.Shipping.AddressLine2,
			City:         order.Shipping.City,
			State:        order.Shipping.State,
			PostalCode:   order.Shipping.PostalCode,
			Country:      order.Shipping.Country,
			Phone:        order.Shipping.Phone,
		}
	}

	if details.Payment != nil {
		ppayload := buildPaymentPayload(*details.Payment, details.PaymentMethod)
		payload.Payment = &ppayload
	}

	return payload
}

func buildPaymentPayload(payment domain.Payment, method *domain.PaymentMethod) paymentPayload {
	payload := paymentPayload{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		Amount:        payment.Amount,
		PaymentStatus: string(payment.Status),
		TransactionID: payment.TransactionID,
	}
	if !payment.PaymentDate.IsZero() {
		date := payment.PaymentDate
		payload.PaymentDate = &date
	}
	if method != nil {
		payload.PaymentMethod = &paymentMethodPayload{
			ID:             method.ID,
			Type:           string(method.Type),
			CardNumber:     method.CardNumber,
			CardholderName: method.CardholderName,
			ExpiryMonth:    method.ExpiryMonth,
			ExpiryYear:     method.ExpiryYear,
			UPIID:          method.UPIID,
			IsDefault:      method.Default,
		}
	}
	return payload
}

func buildTrackingEntry(entry domain.OrderTracking) trackingEntryPayload {
	return trackingEntryPayload{
		ID:              entry.ID,
		OrderID:         entry.OrderID,
		Status:          entry.Status,
		Location:        entry.Location,
		Description:     entry.Description,
		ProcessingNotes: entry.ProcessingNotes,
		UpdatedBy:       entry.UpdatedBy,
		CreatedAt:       entry.CreatedAt,
	}
}

func buildOrderPage(page domain.Page[services.OrderDetails]) pagePayload[orderPayload] {
	content := make([]orderPayload, 0, len(page.Items))
	for _, details := range page.Items {
		content = append(content, buildOrderPayload(details))
	}
	return pagePayload[orderPayload]{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fe.Field()+" failed on "+fe.Tag())
		}
		httpx.WriteError(r.Context(), w, httpx.NewError("validation_failed", strings.Join(parts, "; "), http.StatusBadRequest))
		return
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest))
}
