package handler

import (
	"log/slog"

	"philbox/internal/delivery/api/response"
	"philbox/internal/domain/entity"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ActivityHandlerParams holds dependencies for ActivityHandler, injected by Fx.
type ActivityHandlerParams struct {
	fx.In

	ActivityUC usecase.ActivityLogUsecase
	Logger     *slog.Logger
}

// ActivityHandler serves the stored activity trail to admins.
type ActivityHandler struct {
	activityUC usecase.ActivityLogUsecase
	logger     *slog.Logger
}

// NewActivityHandler is the constructor for ActivityHandler.
func NewActivityHandler(params ActivityHandlerParams) *ActivityHandler {
	return &ActivityHandler{
		activityUC: params.ActivityUC,
		logger:     params.Logger,
	}
}

// ListActivityRequest filters the activity trail
type ListActivityRequest struct {
	ActorKind string `query:"actor_kind" validate:"omitempty,oneof=admin doctor customer salesperson"`
	ActorID   string `query:"actor_id" validate:"omitempty,uuid"`
	Action    string `query:"action" validate:"omitempty,max=64"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
}

// ListActivity returns one page of activity records, newest first.
func (h *ActivityHandler) ListActivity(c echo.Context) error {
	var req ListActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := usecase.ActivityLogListInput{
		ActorKind: entity.ActorKind(req.ActorKind),
		Action:    req.Action,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if req.ActorID != "" {
		input.ActorID = uuid.MustParse(req.ActorID)
	}

	out, err := h.activityUC.List(c.Request().Context(), input)
	if err != nil {
		return err
	}

	items := make([]*ActivityView, 0, len(out.Items))
	for _, record := range out.Items {
		items = append(items, toActivityView(record))
	}

	return response.OK(c, response.Page{
		Items:  items,
		Total:  out.Total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}
