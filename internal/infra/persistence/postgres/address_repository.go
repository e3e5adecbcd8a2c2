package postgres

import (
	"context"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// addressRepository implements the domain.AddressRepository interface.
type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository is the constructor for addressRepository.
func NewAddressRepository(db *gorm.DB) repository.AddressRepository {
	return &addressRepository{db: db}
}

// FindByCustomer retrieves the address of a customer.
func (repo *addressRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*entity.Address, error) {
	var addressM model.AddressModel
	err := repo.db.WithContext(ctx).Where("customer_id = ?", customerID).Take(&addressM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAddressNotFound
		}

		return nil, errors.Wrap(err, "failed to find address by customer")
	}

	return toAddressDomain(&addressM), nil
}

// ExistsForCustomer reports whether the customer has an address on file.
func (repo *addressRepository) ExistsForCustomer(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.AddressModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to count addresses")
	}

	return count > 0, nil
}

// Save inserts or updates the single address of a customer.
func (repo *addressRepository) Save(ctx context.Context, address *entity.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	addressM := fromAddressDomain(address)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"street", "town", "city", "province", "zip_code", "country", "google_map_link", "updated_at",
			}),
		}).
		Create(addressM).Error
	if err != nil {
		// Convert PostgreSQL errors to domain errors
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("invalid customer reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required address information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save address")
	}

	return nil
}

// --- Mapper Functions ---

// toAddressDomain converts a GORM AddressModel to a domain Address entity.
func toAddressDomain(data *model.AddressModel) *entity.Address {
	if data == nil {
		return nil
	}

	return &entity.Address{
		ID:            data.ID,
		CustomerID:    data.CustomerID,
		Street:        data.Street,
		Town:          data.Town,
		City:          data.City,
		Province:      data.Province,
		ZipCode:       data.ZipCode,
		Country:       data.Country,
		GoogleMapLink: data.GoogleMapLink,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

// fromAddressDomain converts a domain Address entity to a GORM AddressModel.
func fromAddressDomain(data *entity.Address) *model.AddressModel {
	if data == nil {
		return nil
	}

	return &model.AddressModel{
		ID:            data.ID,
		CustomerID:    data.CustomerID,
		Street:        data.Street,
		Town:          data.Town,
		City:          data.City,
		Province:      data.Province,
		ZipCode:       data.ZipCode,
		Country:       data.Country,
		GoogleMapLink: data.GoogleMapLink,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}
