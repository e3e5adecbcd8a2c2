package usecase

import (
	"context"

	"philbox/internal/domain/entity"
)

// AddressInput is the customer's postal address.
type AddressInput struct {
	Street        string
	Town          string
	City          string
	Province      string
	ZipCode       string
	Country       string
	GoogleMapLink string
}

// AddressOutput is returned after an address is saved.
type AddressOutput struct {
	Address  *entity.Address
	NextStep entity.NextStep
}

// CustomerProfileUsecase completes a customer's profile.
type CustomerProfileUsecase interface {
	SaveAddress(ctx context.Context, customer *entity.Actor, input AddressInput) (*AddressOutput, error)
}
