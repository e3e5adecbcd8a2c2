package middleware

import (
	deliverycontext "philbox/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// ClientInfo copies the caller's address and user agent into the request context
// so use cases can attach them to audit records.
func ClientInfo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := deliverycontext.WithClientInfo(req.Context(), deliverycontext.ClientInfo{
			IP:        c.RealIP(),
			UserAgent: req.UserAgent(),
		})
		c.SetRequest(req.WithContext(ctx))

		return next(c)
	}
}
