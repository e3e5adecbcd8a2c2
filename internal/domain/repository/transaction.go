package repository

import (
	"context"

	"philbox/internal/domain/entity"
)

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to one connection or transaction.
type RepositoryFactory interface {
	// ActorRepo returns the repository for the given actor kind.
	ActorRepo(kind entity.ActorKind) ActorRepository

	// RoleRepo returns the role and permission repository.
	RoleRepo() RoleRepository

	// DoctorRepo returns the onboarding repository.
	DoctorRepo() DoctorRepository

	// AddressRepo returns the customer address repository.
	AddressRepo() AddressRepository
}
