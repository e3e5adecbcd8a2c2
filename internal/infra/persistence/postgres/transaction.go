package postgres

import (
	"context"
	"fmt"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/repository"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db *gorm.DB
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It hands out repositories bound to one *gorm.DB, which is either the pool or a transaction.
type gormRepositoryFactory struct {
	db *gorm.DB
}

// NewRepositoryFactory returns a factory whose repositories run on the connection pool.
func NewRepositoryFactory(db *gorm.DB) repository.RepositoryFactory {
	return &gormRepositoryFactory{db: db}
}

// ActorRepo returns the repository for the table of the given kind.
func (f *gormRepositoryFactory) ActorRepo(kind entity.ActorKind) repository.ActorRepository {
	return NewActorRepository(f.db, kind)
}

// RoleRepo returns the role and permission repository.
func (f *gormRepositoryFactory) RoleRepo() repository.RoleRepository {
	return NewRoleRepository(f.db)
}

// DoctorRepo returns the onboarding repository.
func (f *gormRepositoryFactory) DoctorRepo() repository.DoctorRepository {
	return NewDoctorRepository(f.db)
}

// AddressRepo returns the customer address repository.
func (f *gormRepositoryFactory) AddressRepo() repository.AddressRepository {
	return NewAddressRepository(f.db)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// A panic inside fn must not leave the transaction open.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{db: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
