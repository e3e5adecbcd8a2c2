package entity

import (
	"time"

	"github.com/google/uuid"
)

// Address is a customer's postal address. Its presence completes a customer profile.
type Address struct {
	ID            uuid.UUID // The Global Unique Identifier (GUID) for the address.
	CustomerID    uuid.UUID // The customer that owns this address.
	Street        string
	Town          string
	City          string
	Province      string
	ZipCode       string
	Country       string
	GoogleMapLink string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
