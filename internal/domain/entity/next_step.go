package entity

// NextStep tells a client which screen an actor should be routed to.
type NextStep string

const (
	NextStepVerifyOTP           NextStep = "verify-otp"
	NextStepVerifyEmail         NextStep = "verify-email"
	NextStepSubmitApplication   NextStep = "submit-application"
	NextStepWaitingApproval     NextStep = "waiting-approval"
	NextStepResubmitApplication NextStep = "resubmit-application"
	NextStepCompleteProfile     NextStep = "complete-profile"
	NextStepDashboard           NextStep = "dashboard"
	NextStepLogin               NextStep = "login"
	NextStepCheckEmail          NextStep = "check-email"
)

// DoctorOnboardingState is the persisted tuple a doctor's next step derives from.
type DoctorOnboardingState struct {
	Doctor          *Actor
	Documents       *DoctorDocuments
	Application     *DoctorApplication
	ProfileComplete bool
}

// DetermineDoctorNextStep derives the onboarding step from stored facts only.
// It never reads a cached status, so the result cannot drift from the records.
func DetermineDoctorNextStep(state DoctorOnboardingState) NextStep {
	if state.Doctor != nil && !state.Doctor.IsVerified {
		return NextStepVerifyEmail
	}
	if state.Documents == nil || state.Application == nil {
		return NextStepSubmitApplication
	}

	switch state.Application.Status {
	case ApplicationPending, ApplicationProcessing:
		return NextStepWaitingApproval
	case ApplicationRejected:
		return NextStepResubmitApplication
	case ApplicationApproved:
		if !state.ProfileComplete {
			return NextStepCompleteProfile
		}

		return NextStepDashboard
	default:
		return NextStepSubmitApplication
	}
}

// DetermineCustomerNextStep routes a customer through verification and address capture.
func DetermineCustomerNextStep(customer *Actor, hasAddress bool) NextStep {
	if customer == nil || !customer.IsVerified {
		return NextStepVerifyEmail
	}
	if !hasAddress {
		return NextStepCompleteProfile
	}

	return NextStepDashboard
}
