package clients

import (
	"context"
	"fmt"
	"net/http"
)

// RemoteAddress is the user-admin service's view of a saved address.
type RemoteAddress struct {
	ID           int64  `json:"id"`
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Default      bool   `json:"isDefault"`
}

// RemoteUser is the profile subset used for order enrichment.
type RemoteUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UserAdminClient talks to the user/admin service.
type UserAdminClient interface {
	GetAddress(ctx context.Context, userID, addressID int64) (RemoteAddress, error)
	GetUser(ctx context.Context, userID int64) (RemoteUser, error)
}

type userAdminClient struct {
	peer *httpPeer
}

// NewUserAdminClient builds a UserAdminClient against the given base URL.
func NewUserAdminClient(baseURL string, opts ...Option) UserAdminClient {
	return &userAdminClient{peer: newHTTPPeer("user-admin-service", baseURL, opts...)}
}

func (c *userAdminClient) GetAddress(ctx context.Context, userID, addressID int64) (RemoteAddress, error) {
	var address RemoteAddress
	path := fmt.Sprintf("/api/users/%d/addresses/%d", userID, addressID)
	if err := c.peer.do(ctx, http.MethodGet, path, nil, &address); err != nil {
		return RemoteAddress{}, err
	}
	return address, nil
}

func (c *userAdminClient) GetUser(ctx context.Context, userID int64) (RemoteUser, error) {
	var user RemoteUser
	if err := c.peer.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil, &user); err != nil {
		return RemoteUser{}, err
	}
	return user, nil
}
