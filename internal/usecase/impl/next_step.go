package impl

import (
	"context"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/repository"

	"github.com/pkg/errors"
)

// nextStepResolver loads the records an actor's next step depends on and applies the pure rules.
type nextStepResolver struct {
	repos repository.RepositoryFactory
}

func newNextStepResolver(repos repository.RepositoryFactory) *nextStepResolver {
	return &nextStepResolver{repos: repos}
}

func (r *nextStepResolver) resolve(ctx context.Context, actor *entity.Actor) (entity.NextStep, error) {
	switch actor.Kind {
	case entity.ActorKindDoctor:
		state, err := r.doctorState(ctx, actor)
		if err != nil {
			return "", err
		}

		return entity.DetermineDoctorNextStep(state), nil
	case entity.ActorKindCustomer:
		hasAddress, err := r.repos.AddressRepo().ExistsForCustomer(ctx, actor.ID)
		if err != nil {
			return "", errors.Wrap(err, "failed to check customer address")
		}

		return entity.DetermineCustomerNextStep(actor, hasAddress), nil
	default:
		return entity.NextStepDashboard, nil
	}
}

func (r *nextStepResolver) doctorState(ctx context.Context, doctor *entity.Actor) (entity.DoctorOnboardingState, error) {
	doctorRepo := r.repos.DoctorRepo()
	state := entity.DoctorOnboardingState{Doctor: doctor}

	docs, err := doctorRepo.FindDocuments(ctx, doctor.ID)
	switch {
	case err == nil:
		state.Documents = docs
	case !errors.Is(err, repository.ErrDocumentsNotFound):
		return state, errors.Wrap(err, "failed to load doctor documents")
	}

	app, err := doctorRepo.FindApplicationByDoctor(ctx, doctor.ID)
	switch {
	case err == nil:
		state.Application = app
	case !errors.Is(err, repository.ErrApplicationNotFound):
		return state, errors.Wrap(err, "failed to load doctor application")
	}

	profile, err := doctorRepo.FindProfile(ctx, doctor.ID)
	switch {
	case err == nil:
		state.ProfileComplete = profile.IsComplete()
	case !errors.Is(err, repository.ErrProfileNotFound):
		return state, errors.Wrap(err, "failed to load doctor profile")
	}

	return state, nil
}
