package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// submitFor creates a pending application for a fresh doctor.
func (fx *serviceFixtures) submitFor(t *testing.T, email string) (*entity.Actor, *entity.DoctorApplication) {
	t.Helper()

	doctor := fx.addActor(t, entity.ActorKindDoctor, email, withStatus(entity.AccountStatusSuspended))
	out, err := fx.onboarding.SubmitApplication(context.Background(), doctor, requiredFiles())
	require.NoError(t, err)

	return doctor, out.Application
}

func TestReviewService_RejectApprovedApplication(t *testing.T) {
	fx := createTestServices(t)
	fx.allowUploads()
	fx.allowCollaborators()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")
	_, app := fx.submitFor(t, "d@example.com")

	_, err := fx.review.Approve(ctx, admin, app.ID, "")
	require.NoError(t, err)

	_, err = fx.review.Reject(ctx, admin, app.ID, "Changed my mind")
	assert.ErrorIs(t, err, domainerrors.ErrCannotRejectApproved)

	view, err := fx.review.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationApproved, view.Application.Status)
	assert.Equal(t, defaultApprovalComment, view.Application.Comment)
}

func TestReviewService_Approve_NotifiesDoctor(t *testing.T) {
	fx := createTestServices(t)
	fx.allowUploads()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")
	doctor := fx.addActor(t, entity.ActorKindDoctor, "d@example.com")

	fx.email.On("SendApplicationDecision", mock.Anything,
		mock.MatchedBy(func(a *entity.Actor) bool { return a.ID == doctor.ID }),
		service.ApplicationDecisionMail{Approved: true, Comment: "Looks good", LinkURL: "https://app.philbox.test/doctor/login"}).
		Return(errors.New("smtp down")).Once()
	fx.notifier.On("EmitToActor", mock.Anything, entity.ActorKindDoctor, doctor.ID.String(), service.EventApplicationApproved,
		mock.Anything).Return(nil).Once()
	fx.audit.On("Record", mock.Anything, mock.MatchedBy(func(r entity.AuditRecord) bool {
		return r.Action == entity.AuditApproveDoctorApplication && r.ActorID == admin.ID
	})).Return(nil).Once()
	fx.allowCollaborators()

	out, err := fx.onboarding.SubmitApplication(ctx, doctor, requiredFiles())
	require.NoError(t, err)

	view, err := fx.review.Approve(ctx, admin, out.Application.ID, "Looks good")

	require.NoError(t, err, "email failures do not undo the decision")
	assert.Equal(t, entity.ApplicationApproved, view.Application.Status)
	assert.Equal(t, entity.AccountStatusActive, fx.reload(t, doctor).Status)
	assert.Equal(t, 1, fx.metrics.count("collaborator", service.CollaboratorEmail))
	assert.Equal(t, 1, fx.metrics.count("onboarding", string(entity.ApplicationApproved)))
}

func TestReviewService_Reject_UsesSupportLink(t *testing.T) {
	fx := createTestServices(t)
	fx.allowUploads()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")
	fx.email.On("SendApplicationDecision", mock.Anything, mock.Anything,
		service.ApplicationDecisionMail{Approved: false, Comment: "Blurry CNIC", LinkURL: "https://app.philbox.test/help"}).
		Return(nil).Once()
	fx.allowCollaborators()
	doctor, app := fx.submitFor(t, "d@example.com")

	view, err := fx.review.Reject(ctx, admin, app.ID, "  Blurry CNIC ")
	require.NoError(t, err)
	assert.Equal(t, "Blurry CNIC", view.Application.Comment)
	assert.Equal(t, entity.AccountStatusSuspended, fx.reload(t, doctor).Status)
}

func TestReviewService_NotFound(t *testing.T) {
	fx := createTestServices(t)
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")

	_, err := fx.review.Approve(ctx, admin, uuid.New(), "")
	assert.ErrorIs(t, err, domainerrors.ErrApplicationNotFound)

	_, err = fx.review.Reject(ctx, admin, uuid.New(), "")
	assert.ErrorIs(t, err, domainerrors.ErrApplicationNotFound)

	_, err = fx.review.GetApplication(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrApplicationNotFound)
}

func TestReviewService_ConcurrentApprovalsApplyOnce(t *testing.T) {
	fx := createTestServices(t)
	fx.allowUploads()
	fx.allowCollaborators()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")
	_, app := fx.submitFor(t, "d@example.com")

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.review.Approve(ctx, admin, app.ID, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++

			continue
		}
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyApproved)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, fx.metrics.count("onboarding", string(entity.ApplicationApproved)))
}

func TestReviewService_ListApplications(t *testing.T) {
	fx := createTestServices(t)
	fx.allowUploads()
	fx.allowCollaborators()
	ctx := context.Background()
	admin := fx.addActor(t, entity.ActorKindAdmin, "admin@example.com")

	var apps []*entity.DoctorApplication
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, app := fx.submitFor(t, email)
		apps = append(apps, app)
		fx.clock.Advance(time.Minute)
	}
	_, err := fx.review.Reject(ctx, admin, apps[0].ID, "")
	require.NoError(t, err)

	pending, err := fx.review.ListApplications(ctx, usecase.ApplicationListInput{Status: entity.ApplicationPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending.Total)
	require.Len(t, pending.Items, 2)
	assert.Equal(t, apps[2].ID, pending.Items[0].Application.ID, "newest first")
	assert.Equal(t, "c@example.com", pending.Items[0].Doctor.Email)
	assert.NotNil(t, pending.Items[0].Documents)

	page, err := fx.review.ListApplications(ctx, usecase.ApplicationListInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, apps[1].ID, page.Items[0].Application.ID)

	_, err = fx.review.ListApplications(ctx, usecase.ApplicationListInput{Status: "archived"})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}
