package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/megamart/order-payment-service/internal/clients"
	"github.com/megamart/order-payment-service/internal/platform/auth"
	"github.com/megamart/order-payment-service/internal/platform/httpx"
	"github.com/megamart/order-payment-service/internal/services"
)

const (
	defaultPage      = 0
	defaultPageSize  = 10
	maxPageSize      = 100
	maxOrderBodySize = 64 * 1024

	serviceName = "order-payment-service"
)

type orderItemRequest struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	LineTotal decimal.Decimal `json:"lineTotal" validate:"-"`
}

type addressRequest struct {
	FullName     string `json:"fullName" validate:"required,max=100"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode" validate:"omitempty,numeric,min=5,max=10"`
	Country      string `json:"country"`
	Phone        string `json:"phone" validate:"omitempty,numeric,len=10"`
	IsDefault    bool   `json:"isDefault"`
}

type paymentMethodRequest struct {
	Type           string `json:"type" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"omitempty,numeric,len=16"`
	CardholderName string `json:"cardholderName"`
	ExpiryMonth    string `json:"expiryMonth"`
	ExpiryYear     string `json:"expiryYear"`
	CVV            string `json:"cvv" validate:"omitempty,numeric,len=3"`
	UPIID          string `json:"upiId"`
	IsDefault      bool   `json:"isDefault"`
}

type createOrderRequest struct {
	UserID      int64              `json:"userId" validate:"required,gt=0"`
	Total       decimal.Decimal    `json:"total" validate:"-"`
	PaymentType string             `json:"paymentType" validate:"required"`
	Items       []orderItemRequest `json:"items" validate:"required,min=1,dive"`

	AddressID  *int64          `json:"addressId"`
	NewAddress *addressRequest `json:"newAddress"`

	PaymentMethodID  *int64                `json:"paymentMethodId"`
	NewPaymentMethod *paymentMethodRequest `json:"newPaymentMethod"`
}

type orderFromCartRequest struct {
	Address       *addressRequest       `json:"address" validate:"required"`
	PaymentMethod *paymentMethodRequest `json:"paymentMethod" validate:"required"`
}

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders   services.OrderService
	validate *validator.Validate
	port     string
}

// NewOrderHandlers constructs a new OrderHandlers instance. Port is reported
// by the service health payload.
func NewOrderHandlers(orders services.OrderService, port string) *OrderHandlers {
	return &OrderHandlers{
		orders:   orders,
		validate: validator.New(),
		port:     port,
	}
}

// Routes registers the /api/orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.health)
	r.Post("/", h.createOrder)
	r.Post("/from-cart/{userID}", h.createOrderFromCart)
	r.Get("/user/{userID}", h.getUserOrders)
	r.With(auth.RequireAdmin).Get("/", h.getAllOrders)
	r.Get("/{orderID}", h.getOrder)
	r.With(auth.RequireAdmin).Put("/{orderID}/status", h.updateOrderStatus)
	r.Put("/{orderID}/cancel", h.cancelOrder)
	r.With(auth.RequireAdmin).Delete("/{orderID}", h.deleteOrder)
	r.Get("/{orderID}/tracking", h.getOrderTracking)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	details, err := h.orders.Create(ctx, buildCreateOrderCommand(req))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(details))
}

func (h *OrderHandlers) createOrderFromCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	userID, ok := parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req orderFromCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	details, err := h.orders.CreateFromCart(ctx, userID, buildNewAddress(*req.Address), buildNewPaymentMethod(*req.PaymentMethod))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(details))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	details, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(details))
}

func (h *OrderHandlers) getUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	userID, ok := parseIDParam(w, r, "userID")
	if !ok {
		return
	}
	page, size, ok := parsePageParams(w, r)
	if !ok {
		return
	}

	result, err := h.orders.ListByUser(ctx, userID, page, size)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPage(result))
}

func (h *OrderHandlers) getAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	page, size, ok := parsePageParams(w, r)
	if !ok {
		return
	}

	result, err := h.orders.ListAll(ctx, page, size)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPage(result))
}

func (h *OrderHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	query := r.URL.Query()
	status := strings.TrimSpace(query.Get("status"))
	if status == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status query parameter is required", http.StatusBadRequest))
		return
	}

	cmd := services.UpdateOrderStatusCommand{
		OrderID: orderID,
		Status:  status,
		Notes:   strings.TrimSpace(query.Get("notes")),
	}
	if raw := strings.TrimSpace(query.Get("locationId")); raw != "" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "locationId must be an integer", http.StatusBadRequest))
			return
		}
		cmd.LocationID = &locationID
	}
	details, err := h.orders.UpdateStatus(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(details))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	details, err := h.orders.Cancel(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(details))
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	if err := h.orders.Delete(ctx, orderID); err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderDeletePayload{
		Message: "Order deleted successfully",
		OrderID: orderID,
	})
}

func (h *OrderHandlers) getOrderTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	history, err := h.orders.TrackingHistory(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	entries := make([]trackingEntryPayload, 0, len(history))
	for _, entry := range history {
		entries = append(entries, buildTrackingEntry(entry))
	}

	writeJSONResponse(w, http.StatusOK, trackingHistoryPayload{
		OrderID:         orderID,
		TrackingHistory: entries,
	})
}

func (h *OrderHandlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"service":   serviceName,
		"status":    "UP",
		"port":      h.port,
		"timestamp": time.Now().UnixMilli(),
	})
}

func buildCreateOrderCommand(req createOrderRequest) services.CreateOrderCommand {
	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	cmd := services.CreateOrderCommand{
		UserID:          req.UserID,
		Total:           req.Total,
		PaymentType:     req.PaymentType,
		Items:           items,
		AddressID:       req.AddressID,
		PaymentMethodID: req.PaymentMethodID,
	}
	if req.NewAddress != nil {
		address := buildNewAddress(*req.NewAddress)
		cmd.NewAddress = &address
	}
	if req.NewPaymentMethod != nil {
		method := buildNewPaymentMethod(*req.NewPaymentMethod)
		cmd.NewPaymentMethod = &method
	}
	return cmd
}

func buildNewAddress(req addressRequest) services.NewAddress {
	return services.NewAddress{
		FullName:     req.FullName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		Default:      req.IsDefault,
	}
}

func buildNewPaymentMethod(req paymentMethodRequest) services.NewPaymentMethod {
	return services.NewPaymentMethod{
		Type:           req.Type,
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		UPIID:          req.UPIID,
		CVV:            req.CVV,
		Default:        req.IsDefault,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBodySize))
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", name+" must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return id, true
}

func parsePageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()

	page := defaultPage
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "page must be a non-negative integer", http.StatusBadRequest))
			return 0, 0, false
		}
		page = parsed
	}

	size := defaultPageSize
	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "size must be a positive integer", http.StatusBadRequest))
			return 0, 0, false
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		size = parsed
	}

	return page, size, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrValidationFailed):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_order_status", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentMethodNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, clients.ErrPeerUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "a dependent service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
