package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/megamart/order-payment-service/internal/clients"
	"github.com/megamart/order-payment-service/internal/domain"
)

var (
	// ErrAddressNotFound indicates the address exists neither remotely nor locally.
	ErrAddressNotFound = errors.New("userdata: address not found")
	// ErrPaymentMethodNotFound indicates the payment method could not be located.
	ErrPaymentMethodNotFound = errors.New("userdata: payment method not found")
	// ErrValidationFailed signals a field-level validation failure.
	ErrValidationFailed = errors.New("userdata: validation failed")
)

var (
	phonePattern      = regexp.MustCompile(`^\d{10}$`)
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
)

// NewAddress carries the fields of an inline address submitted with an order.
type NewAddress struct {
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
	Default      bool
}

// NewPaymentMethod carries the fields of an inline payment method. CVV is
// accepted transiently and only ever persisted as a one-way hash.
type NewPaymentMethod struct {
	Type           string
	CardNumber     string
	CardholderName string
	ExpiryMonth    string
	ExpiryYear     string
	UPIID          string
	CVV            string
	Default        bool
}

// UserDataService resolves and creates shipping addresses and payment
// methods. Reads try the user-admin service first and fall back to the local
// store; writes land in the local store, which stands in for a real
// user-service write and must stay swappable without touching orchestration.
type UserDataService interface {
	GetAddress(ctx context.Context, userID, addressID int64) (domain.Address, error)
	CreateAddress(ctx context.Context, userID int64, address NewAddress) (domain.Address, error)
	GetPaymentMethod(ctx context.Context, userID, paymentMethodID int64) (domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, userID int64, method NewPaymentMethod) (domain.PaymentMethod, error)
}

// UserDataServiceDeps bundles collaborators for NewUserDataService.
type UserDataServiceDeps struct {
	Users   clients.UserAdminClient
	HashCVV func(cvv string) (string, error)
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type userDataService struct {
	users   clients.UserAdminClient
	hashCVV func(string) (string, error)
	logger  func(context.Context, string, map[string]any)

	mu             sync.Mutex
	addresses      map[int64]domain.Address
	paymentMethods map[int64]domain.PaymentMethod
	nextAddressID  int64
	nextMethodID   int64
}

// NewUserDataService wires dependencies into a concrete UserDataService with
// the sample records loaded.
func NewUserDataService(deps UserDataServiceDeps) UserDataService {
	hash := deps.HashCVV
	if hash == nil {
		hash = func(cvv string) (string, error) {
			digest, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
			if err != nil {
				return "", err
			}
			return string(digest), nil
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	s := &userDataService{
		users:          deps.Users,
		hashCVV:        hash,
		logger:         logger,
		addresses:      make(map[int64]domain.Address),
		paymentMethods: make(map[int64]domain.PaymentMethod),
	}
	s.loadSampleData()
	return s
}

func (s *userDataService) GetAddress(ctx context.Context, userID, addressID int64) (domain.Address, error) {
	if s.users != nil {
		remote, err := s.users.GetAddress(ctx, userID, addressID)
		if err == nil {
			return domain.Address{
				ID:           remote.ID,
				FullName:     remote.FullName,
				AddressLine1: remote.AddressLine1,
				AddressLine2: remote.AddressLine2,
				City:         remote.City,
				State:        remote.State,
				PostalCode:   remote.PostalCode,
				Country:      remote.Country,
				Phone:        remote.Phone,
				Default:      remote.Default,
			}, nil
		}
		s.logger(ctx, "userdata.address.remote.failed", map[string]any{
			"user":    userID,
			"address": addressID,
			"error":   err.Error(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	address, ok := s.addresses[addressID]
	if !ok {
		return domain.Address{}, fmt.Errorf("%w: user %d address %d", ErrAddressNotFound, userID, addressID)
	}
	return address, nil
}

func (s *userDataService) CreateAddress(ctx context.Context, userID int64, address NewAddress) (domain.Address, error) {
	if !phonePattern.MatchString(strings.TrimSpace(address.Phone)) {
		return domain.Address{}, fmt.Errorf("%w: phone number must be exactly 10 digits", ErrValidationFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := domain.Address{
		ID:           s.nextAddressID,
		FullName:     strings.TrimSpace(address.FullName),
		AddressLine1: strings.TrimSpace(address.AddressLine1),
		AddressLine2: strings.TrimSpace(address.AddressLine2),
		City:         strings.TrimSpace(address.City),
		State:        strings.TrimSpace(address.State),
		PostalCode:   strings.TrimSpace(address.PostalCode),
		Country:      strings.TrimSpace(address.Country),
		Phone:        strings.TrimSpace(address.Phone),
		Default:      address.Default,
	}
	s.addresses[created.ID] = created
	s.nextAddressID++

	s.logger(ctx, "userdata.address.created", map[string]any{"user": userID, "address": created.ID})
	return created, nil
}

func (s *userDataService) GetPaymentMethod(ctx context.Context, userID, paymentMethodID int64) (domain.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	method, ok := s.paymentMethods[paymentMethodID]
	if !ok {
		return domain.PaymentMethod{}, fmt.Errorf("%w: user %d payment method %d", ErrPaymentMethodNotFound, userID, paymentMethodID)
	}
	method.CVVHash = ""
	return method, nil
}

func (s *userDataService) CreatePaymentMethod(ctx context.Context, userID int64, method NewPaymentMethod) (domain.PaymentMethod, error) {
	methodType := strings.ToUpper(strings.TrimSpace(method.Type))
	if methodType == string(domain.PaymentTypeCard) {
		if !cardNumberPattern.MatchString(method.CardNumber) {
			return domain.PaymentMethod{}, fmt.Errorf("%w: card number must be exactly 16 digits", ErrValidationFailed)
		}
		if !cvvPattern.MatchString(method.CVV) {
			return domain.PaymentMethod{}, fmt.Errorf("%w: cvv must be exactly 3 digits", ErrValidationFailed)
		}
	}

	var cvvHash string
	if method.CVV != "" {
		hashed, err := s.hashCVV(method.CVV)
		if err != nil {
			return domain.PaymentMethod{}, fmt.Errorf("userdata: hash cvv: %w", err)
		}
		cvvHash = hashed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := domain.PaymentMethod{
		ID:             s.nextMethodID,
		Type:           domain.PaymentType(methodType),
		CardNumber:     maskCardNumber(method.CardNumber),
		CardholderName: strings.TrimSpace(method.CardholderName),
		ExpiryMonth:    strings.TrimSpace(method.ExpiryMonth),
		ExpiryYear:     strings.TrimSpace(method.ExpiryYear),
		UPIID:          strings.TrimSpace(method.UPIID),
		Default:        method.Default,
		CVVHash:        cvvHash,
	}
	s.paymentMethods[created.ID] = created
	s.nextMethodID++

	s.logger(ctx, "userdata.payment_method.created", map[string]any{"user": userID, "method": created.ID})

	created.CVVHash = ""
	return created, nil
}

func maskCardNumber(cardNumber string) string {
	if cardNumber == "" || strings.Contains(cardNumber, "*") {
		return cardNumber
	}
	if len(cardNumber) >= 4 {
		return "****-****-****-" + cardNumber[len(cardNumber)-4:]
	}
	return cardNumber
}

// loadSampleData seeds one address and one payment method so manual testing
// has stable ids to point at.
func (s *userDataService) loadSampleData() {
	s.addresses[1] = domain.Address{
		ID:           1,
		FullName:     "John Doe",
		AddressLine1: "123 Main Street",
		City:         "New York",
		State:        "NY",
		PostalCode:   "10001",
		Country:      "USA",
		Phone:        "1234567890",
		Default:      true,
	}
	s.paymentMethods[1] = domain.PaymentMethod{
		ID:             1,
		Type:           domain.PaymentTypeCard,
		CardNumber:     "****-****-****-1234",
		CardholderName: "John Doe",
		ExpiryMonth:    "12",
		ExpiryYear:     "2025",
		Default:        true,
	}
	s.nextAddressID = 2
	s.nextMethodID = 2
}
