package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// customerProfileService implements the CustomerProfileUsecase interface.
type customerProfileService struct {
	repos  repository.RepositoryFactory
	clock  service.Clock
	audit  *auditor
	logger *slog.Logger
}

// CustomerProfileServiceParams holds dependencies for CustomerProfileService, injected by Fx.
type CustomerProfileServiceParams struct {
	fx.In

	Repos   repository.RepositoryFactory
	Audit   service.AuditSink
	Clock   service.Clock
	Metrics service.MetricsRecorder `optional:"true"`
	Logger  *slog.Logger
}

// NewCustomerProfileService is the constructor for customerProfileService.
func NewCustomerProfileService(params CustomerProfileServiceParams) usecase.CustomerProfileUsecase {
	return &customerProfileService{
		repos:  params.Repos,
		clock:  params.Clock,
		audit:  newAuditor(params.Audit, params.Metrics),
		logger: params.Logger,
	}
}

// SaveAddress creates or replaces the customer's single address.
func (srv *customerProfileService) SaveAddress(ctx context.Context, customer *entity.Actor, input usecase.AddressInput) (*usecase.AddressOutput, error) {
	if customer.Kind != entity.ActorKindCustomer {
		return nil, domainerrors.ErrForbidden
	}

	input = trimAddress(input)
	var missing []string
	if input.Street == "" {
		missing = append(missing, "street")
	}
	if input.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return nil, domainerrors.ErrValidationFailed.WithDetails("required: " + strings.Join(missing, ", "))
	}

	addressRepo := srv.repos.AddressRepo()
	now := srv.clock.Now()

	address, err := addressRepo.FindByCustomer(ctx, customer.ID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAddressNotFound):
		address = &entity.Address{ID: uuid.New(), CustomerID: customer.ID, CreatedAt: now}
	default:
		return nil, errors.Wrap(err, "failed to find address")
	}

	address.Street = input.Street
	address.Town = input.Town
	address.City = input.City
	address.Province = input.Province
	address.ZipCode = input.ZipCode
	address.Country = input.Country
	address.GoogleMapLink = input.GoogleMapLink
	address.UpdatedAt = now

	if err := addressRepo.Save(ctx, address); err != nil {
		return nil, errors.Wrap(err, "failed to save address")
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
	srv.audit.record(ctx, logger, auditEntry{
		actor:       customer,
		action:      entity.AuditUpdateAddress,
		description: "Customer updated their address",
		collection:  "addresses",
		resourceID:  address.ID.String(),
		changes:     map[string]any{"city": address.City, "country": address.Country},
		at:          now,
	})

	return &usecase.AddressOutput{
		Address:  address,
		NextStep: entity.DetermineCustomerNextStep(customer, true),
	}, nil
}

func trimAddress(in usecase.AddressInput) usecase.AddressInput {
	return usecase.AddressInput{
		Street:        strings.TrimSpace(in.Street),
		Town:          strings.TrimSpace(in.Town),
		City:          strings.TrimSpace(in.City),
		Province:      strings.TrimSpace(in.Province),
		ZipCode:       strings.TrimSpace(in.ZipCode),
		Country:       strings.TrimSpace(in.Country),
		GoogleMapLink: strings.TrimSpace(in.GoogleMapLink),
	}
}
