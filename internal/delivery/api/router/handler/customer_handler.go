package handler

import (
	"log/slog"

	"philbox/internal/delivery/api/response"
	deliverycontext "philbox/internal/delivery/context"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CustomerHandlerParams holds dependencies for CustomerHandler, injected by Fx.
type CustomerHandlerParams struct {
	fx.In

	ProfileUC usecase.CustomerProfileUsecase
	Logger    *slog.Logger
}

// CustomerHandler serves customer profile routes.
type CustomerHandler struct {
	profileUC usecase.CustomerProfileUsecase
	logger    *slog.Logger
}

// NewCustomerHandler is the constructor for CustomerHandler.
func NewCustomerHandler(params CustomerHandlerParams) *CustomerHandler {
	return &CustomerHandler{
		profileUC: params.ProfileUC,
		logger:    params.Logger,
	}
}

// AddressRequest represents the request body for saving an address
type AddressRequest struct {
	Street        string `json:"street" validate:"required,max=200"`
	Town          string `json:"town" validate:"omitempty,max=100"`
	City          string `json:"city" validate:"required,max=100"`
	Province      string `json:"province" validate:"required,max=100"`
	ZipCode       string `json:"zip_code" validate:"omitempty,max=20"`
	Country       string `json:"country" validate:"required,max=100"`
	GoogleMapLink string `json:"google_map_link" validate:"omitempty,url"`
}

// SaveAddress creates or replaces the signed-in customer's address.
func (h *CustomerHandler) SaveAddress(c echo.Context) error {
	customer := deliverycontext.GetActor(c)
	if customer == nil {
		return domainerrors.ErrUnauthorized
	}

	var req AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.profileUC.SaveAddress(c.Request().Context(), customer, usecase.AddressInput{
		Street:        req.Street,
		Town:          req.Town,
		City:          req.City,
		Province:      req.Province,
		ZipCode:       req.ZipCode,
		Country:       req.Country,
		GoogleMapLink: req.GoogleMapLink,
	})
	if err != nil {
		return err
	}

	return response.OK(c, map[string]any{
		"address":   toAddressView(out.Address),
		"next_step": string(out.NextStep),
	})
}
