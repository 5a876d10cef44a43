package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/webserver/weberror"
	"github.com/mdouchement/securevision/internal/xpath"
)

type capture struct {
	logger   logger.Logger
	capturer *service.Capturer
}

// Upload stores the raw request body in the captures area.
func (h *capture) Upload(c echo.Context) error {
	c.Set("handler_method", "capture.Upload")

	uri, err := h.capturer.Store(xpath.Extension(c.Param("filename")), c.Request().Body)
	if err != nil {
		return weberror.Internal(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"uri": uri,
	})
}
