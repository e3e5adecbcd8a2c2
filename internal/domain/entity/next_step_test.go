package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetermineDoctorNextStep(t *testing.T) {
	verified := &Actor{IsVerified: true}
	docs := &DoctorDocuments{CNIC: "c", MedicalLicense: "m", MBBSMDDegree: "d"}
	completed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	app := func(s ApplicationStatus) *DoctorApplication { return &DoctorApplication{Status: s} }

	tests := []struct {
		name  string
		state DoctorOnboardingState
		want  NextStep
	}{
		{name: "unverified email", state: DoctorOnboardingState{Doctor: &Actor{}}, want: NextStepVerifyEmail},
		{name: "nothing submitted", state: DoctorOnboardingState{Doctor: verified}, want: NextStepSubmitApplication},
		{name: "documents without application", state: DoctorOnboardingState{Doctor: verified, Documents: docs}, want: NextStepSubmitApplication},
		{name: "pending", state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app(ApplicationPending)}, want: NextStepWaitingApproval},
		{name: "processing", state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app(ApplicationProcessing)}, want: NextStepWaitingApproval},
		{name: "rejected", state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app(ApplicationRejected)}, want: NextStepResubmitApplication},
		{name: "approved without profile", state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app(ApplicationApproved)}, want: NextStepCompleteProfile},
		{
			name:  "approved with profile",
			state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app(ApplicationApproved), ProfileComplete: true},
			want:  NextStepDashboard,
		},
		{name: "unknown status", state: DoctorOnboardingState{Doctor: verified, Documents: docs, Application: app("archived")}, want: NextStepSubmitApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineDoctorNextStep(tt.state))
			// Same input, same answer.
			assert.Equal(t, tt.want, DetermineDoctorNextStep(tt.state))
		})
	}

	profile := &DoctorProfile{CompletedAt: &completed, Education: []Education{{Degree: "MBBS"}}}
	assert.True(t, profile.IsComplete())
	assert.False(t, (&DoctorProfile{CompletedAt: &completed}).IsComplete())
	assert.False(t, (*DoctorProfile)(nil).IsComplete())
}

func TestDetermineCustomerNextStep(t *testing.T) {
	assert.Equal(t, NextStepVerifyEmail, DetermineCustomerNextStep(nil, true))
	assert.Equal(t, NextStepVerifyEmail, DetermineCustomerNextStep(&Actor{}, true))
	assert.Equal(t, NextStepCompleteProfile, DetermineCustomerNextStep(&Actor{IsVerified: true}, false))
	assert.Equal(t, NextStepDashboard, DetermineCustomerNextStep(&Actor{IsVerified: true}, true))
}
