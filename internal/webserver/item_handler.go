package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/webserver/serializer"
	"github.com/mdouchement/securevision/internal/webserver/weberror"
)

type item struct {
	logger    logger.Logger
	db        database.Client
	verifier  *service.Verifier
	destroyer *service.Destroyer
}

func (h *item) List(c echo.Context) error {
	c.Set("handler_method", "item.List")

	items, err := h.db.ListItems()
	if err != nil {
		return weberror.Internal(err)
	}

	//

	if c.Request().Header.Get("Accept") == "text/plain" {
		return c.String(http.StatusOK, serializer.TextItems(items))
	}
	// "application/json"
	return c.JSON(http.StatusOK, items)
}

func (h *item) Show(c echo.Context) error {
	c.Set("handler_method", "item.Show")

	item, err := h.db.FindItem(c.Param("id"))
	if err != nil {
		if h.db.IsNotFound(err) {
			return weberror.NotFound("item")
		}

		return weberror.Internal(err)
	}

	return c.JSON(http.StatusOK, item)
}

// Verification renders the item alongside a fresh verdict of its image.
func (h *item) Verification(c echo.Context) error {
	c.Set("handler_method", "item.Verification")

	item, err := h.db.FindItem(c.Param("id"))
	if err != nil {
		if h.db.IsNotFound(err) {
			return weberror.NotFound("item")
		}

		return weberror.Internal(err)
	}

	return c.JSON(http.StatusOK, serializer.ItemVerification(item, h.verifier.Verify(item.URI)))
}

func (h *item) Delete(c echo.Context) error {
	c.Set("handler_method", "item.Delete")

	_, err := h.destroyer.Destroy(c.Param("id"))
	if err != nil {
		if h.db.IsNotFound(err) {
			return weberror.NotFound("item")
		}

		return weberror.Internal(err)
	}

	return c.NoContent(http.StatusNoContent)
}
