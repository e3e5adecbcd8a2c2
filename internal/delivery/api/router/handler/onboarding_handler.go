package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"philbox/config"
	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// maxMultipartMemory is how much of a multipart body is buffered before spilling to disk.
const maxMultipartMemory = 8 << 20

// OnboardingHandlerParams holds dependencies for OnboardingHandler, injected by Fx.
type OnboardingHandlerParams struct {
	fx.In

	OnboardingUC usecase.OnboardingUsecase
	Config       *config.Config
	Logger       *slog.Logger
}

// OnboardingHandler serves the doctor onboarding routes.
type OnboardingHandler struct {
	onboardingUC usecase.OnboardingUsecase
	stagingDir   string
	logger       *slog.Logger
}

// NewOnboardingHandler is the constructor for OnboardingHandler.
func NewOnboardingHandler(params OnboardingHandlerParams) *OnboardingHandler {
	var stagingDir string
	if params.Config.Storage != nil {
		stagingDir = params.Config.Storage.StagingDir
	}

	return &OnboardingHandler{
		onboardingUC: params.OnboardingUC,
		stagingDir:   stagingDir,
		logger:       params.Logger,
	}
}

// SubmitApplication accepts the first submission of credential documents.
func (h *OnboardingHandler) SubmitApplication(c echo.Context) error {
	return h.submit(c, h.onboardingUC.SubmitApplication, http.StatusCreated)
}

// ResubmitApplication replaces the documents of a rejected application.
func (h *OnboardingHandler) ResubmitApplication(c echo.Context) error {
	return h.submit(c, h.onboardingUC.ResubmitApplication, http.StatusOK)
}

type submitFunc func(ctx context.Context, doctor *entity.Actor, files usecase.DocumentFiles) (*usecase.ApplicationOutput, error)

func (h *OnboardingHandler) submit(c echo.Context, fn submitFunc, status int) error {
	doctor := deliverycontext.GetActor(c)
	if doctor == nil {
		return domainerrors.ErrUnauthorized
	}

	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	stager := newFileStager(h.stagingDir)
	defer stager.cleanup()

	files := make(usecase.DocumentFiles)
	for _, field := range []entity.DocumentField{
		entity.DocumentMedicalLicense,
		entity.DocumentMBBSMDDegree,
		entity.DocumentCNIC,
		entity.DocumentSpecialistLicense,
	} {
		path, err := stager.stageOne(form, string(field))
		if err != nil {
			return err
		}
		if path != "" {
			files[field] = []string{path}
		}
	}
	letters, err := stager.stageAll(form, string(entity.DocumentExperienceLetters))
	if err != nil {
		return err
	}
	if len(letters) > 0 {
		files[entity.DocumentExperienceLetters] = letters
	}

	out, err := fn(c.Request().Context(), doctor, files)
	if err != nil {
		return err
	}

	return response.Success(c, status, toApplicationStatusView(out))
}

// GetApplicationStatus reports the doctor's application and what to do next.
func (h *OnboardingHandler) GetApplicationStatus(c echo.Context) error {
	doctor := deliverycontext.GetActor(c)
	if doctor == nil {
		return domainerrors.ErrUnauthorized
	}

	out, err := h.onboardingUC.GetApplicationStatus(c.Request().Context(), doctor)
	if err != nil {
		return err
	}

	return response.OK(c, toApplicationStatusView(out))
}

// NextStep returns the screen the doctor should be routed to.
func (h *OnboardingHandler) NextStep(c echo.Context) error {
	doctor := deliverycontext.GetActor(c)
	if doctor == nil {
		return domainerrors.ErrUnauthorized
	}

	next, err := h.onboardingUC.NextStep(c.Request().Context(), doctor)
	if err != nil {
		return err
	}

	return response.OK(c, map[string]string{"next_step": string(next)})
}

// CompleteProfile accepts the post-approval profile. Structured fields arrive as
// JSON-encoded form values next to the image and certificate files.
func (h *OnboardingHandler) CompleteProfile(c echo.Context) error {
	doctor := deliverycontext.GetActor(c)
	if doctor == nil {
		return domainerrors.ErrUnauthorized
	}

	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	input, err := parseProfileForm(form)
	if err != nil {
		return err
	}

	stager := newFileStager(h.stagingDir)
	defer stager.cleanup()

	if input.ProfileImagePath, err = stager.stageOne(form, "profile_img"); err != nil {
		return err
	}
	if input.CoverImagePath, err = stager.stageOne(form, "cover_img"); err != nil {
		return err
	}
	if input.DigitalSignaturePath, err = stager.stageOne(form, "digital_signature"); err != nil {
		return err
	}
	if input.EducationFiles, err = stageIndexed(stager, form, "education_file_", len(input.Education)); err != nil {
		return err
	}
	if input.ExperienceFiles, err = stageIndexed(stager, form, "experience_file_", len(input.Experience)); err != nil {
		return err
	}

	out, err := h.onboardingUC.CompleteProfile(c.Request().Context(), doctor, *input)
	if err != nil {
		return err
	}

	return response.OK(c, map[string]any{
		"profile":   toProfileView(out.Profile),
		"next_step": string(out.NextStep),
	})
}

// stageIndexed stages <prefix><i> for each entry, leaving "" where no file was sent.
func stageIndexed(stager *fileStager, form *multipart.Form, prefix string, n int) ([]string, error) {
	paths := make([]string, n)
	for i := range n {
		path, err := stager.stageOne(form, prefix+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}

	return paths, nil
}

func multipartForm(c echo.Context) (*multipart.Form, error) {
	if err := c.Request().ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, echo.ErrStatusRequestEntityTooLarge
		}

		return nil, domainerrors.ErrValidationFailed.WithDetails("expected a multipart/form-data body")
	}

	return c.Request().MultipartForm, nil
}

func parseProfileForm(form *multipart.Form) (*usecase.ProfileInput, error) {
	value := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}

		return ""
	}

	input := &usecase.ProfileInput{
		AffiliatedHospital: value("affiliated_hospital"),
		ConsultationType:   entity.ConsultationType(value("consultation_type")),
		LicenseNumber:      value("license_number"),
		ConsultationFee:    decimal.Zero,
	}
	if input.LicenseNumber == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("license_number is required")
	}

	for key, dst := range map[string]any{
		"specializations": &input.Specializations,
		"education":       &input.Education,
		"experience":      &input.Experience,
	} {
		raw := value(key)
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails(key + " must be a JSON array")
		}
	}

	if raw := value("consultation_fee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails("consultation_fee must be a number")
		}
		input.ConsultationFee = fee
	}

	return input, nil
}
