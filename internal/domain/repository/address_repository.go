package repository

import (
	"context"

	"philbox/internal/domain/entity"
	"philbox/internal/errors"

	"github.com/google/uuid"
)

// ErrAddressNotFound is returned when a customer has no address.
var ErrAddressNotFound = errors.New("address not found")

// AddressRepository defines the interface for customer address persistence.
type AddressRepository interface {
	// FindByCustomer retrieves the address of a customer.
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*entity.Address, error)

	// ExistsForCustomer reports whether the customer has an address on file.
	ExistsForCustomer(ctx context.Context, customerID uuid.UUID) (bool, error)

	// Save inserts or updates the single address of a customer.
	Save(ctx context.Context, address *entity.Address) error
}
