package handler

import (
	"log/slog"

	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ReviewHandlerParams holds dependencies for ReviewHandler, injected by Fx.
type ReviewHandlerParams struct {
	fx.In

	ReviewUC usecase.ApplicationReviewUsecase
	Logger   *slog.Logger
}

// ReviewHandler serves the admin side of doctor onboarding.
type ReviewHandler struct {
	reviewUC usecase.ApplicationReviewUsecase
	logger   *slog.Logger
}

// NewReviewHandler is the constructor for ReviewHandler.
func NewReviewHandler(params ReviewHandlerParams) *ReviewHandler {
	return &ReviewHandler{
		reviewUC: params.ReviewUC,
		logger:   params.Logger,
	}
}

// ListApplicationsRequest filters the review queue
type ListApplicationsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending processing rejected approved"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// DecisionRequest carries the reviewer's comment or rejection reason
type DecisionRequest struct {
	Comment string `json:"comment" validate:"omitempty,max=2000"`
	Reason  string `json:"reason" validate:"omitempty,max=2000"`
}

// ListApplications returns one page of applications, newest first.
func (h *ReviewHandler) ListApplications(c echo.Context) error {
	var req ListApplicationsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.reviewUC.ListApplications(c.Request().Context(), usecase.ApplicationListInput{
		Status: entity.ApplicationStatus(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return err
	}

	items := make([]*ApplicationView, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, toReviewView(item))
	}

	return response.OK(c, response.Page{
		Items:  items,
		Total:  out.Total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// GetApplication returns one application with its doctor and documents.
func (h *ReviewHandler) GetApplication(c echo.Context) error {
	id, err := applicationID(c)
	if err != nil {
		return err
	}

	view, err := h.reviewUC.GetApplication(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return response.OK(c, toReviewView(view))
}

// Approve approves an application and activates the doctor.
func (h *ReviewHandler) Approve(c echo.Context) error {
	admin, id, req, err := h.decisionInput(c)
	if err != nil {
		return err
	}

	view, err := h.reviewUC.Approve(c.Request().Context(), admin, id, req.Comment)
	if err != nil {
		return err
	}

	return response.OK(c, toReviewView(view))
}

// Reject rejects an application so the doctor can resubmit.
func (h *ReviewHandler) Reject(c echo.Context) error {
	admin, id, req, err := h.decisionInput(c)
	if err != nil {
		return err
	}

	reason := req.Reason
	if reason == "" {
		reason = req.Comment
	}
	view, err := h.reviewUC.Reject(c.Request().Context(), admin, id, reason)
	if err != nil {
		return err
	}

	return response.OK(c, toReviewView(view))
}

func (h *ReviewHandler) decisionInput(c echo.Context) (*entity.Actor, uuid.UUID, *DecisionRequest, error) {
	admin := deliverycontext.GetActor(c)
	if admin == nil {
		return nil, uuid.Nil, nil, domainerrors.ErrUnauthorized
	}
	id, err := applicationID(c)
	if err != nil {
		return nil, uuid.Nil, nil, err
	}

	var req DecisionRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return nil, uuid.Nil, nil, err
		}
	}

	return admin, id, &req, nil
}

func applicationID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domainerrors.ErrApplicationNotFound
	}

	return id, nil
}
