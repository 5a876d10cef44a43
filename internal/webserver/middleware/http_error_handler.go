package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/webserver/weberror"
)

// NewHTTPErrorHandler is a middleware that formats rendered errors.
func NewHTTPErrorHandler(log logger.Logger) func(err error, c echo.Context) {
	log = log.WithPrefix("[http]")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var rendered error
		switch e := err.(type) {
		case *echo.HTTPError:
			err = weberror.New(e.Code, http.StatusText(e.Code))
		case *weberror.Error:
		default:
			err = weberror.Internal(err)
		}

		code := weberror.StatusCode(err)
		if c.Request().Method == http.MethodHead {
			rendered = c.NoContent(code)
		} else {
			rendered = c.JSON(code, err)
		}

		if code >= http.StatusInternalServerError {
			log.Error(err)
		}
		if rendered != nil {
			log.Errorf("HTTPErrorHandler: %s", rendered)
		}
	}
}
