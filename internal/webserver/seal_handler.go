package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/webserver/serializer"
	"github.com/mdouchement/securevision/internal/webserver/weberror"
)

type seal struct {
	logger   logger.Logger
	db       database.Client
	sealer   *service.Sealer
	verifier *service.Verifier
	author   string
}

type (
	sealRequest struct {
		Source   string         `json:"source"`
		Manifest model.Manifest `json:"manifest"`
		AssetID  string         `json:"assetId"`
	}

	verifyRequest struct {
		URI string `json:"uri"`
	}
)

// Create seals the source image and saves it in the index.
func (h *seal) Create(c echo.Context) error {
	c.Set("handler_method", "seal.Create")

	var req sealRequest
	if err := c.Bind(&req); err != nil {
		return weberror.BadRequest(err.Error())
	}
	if req.Source == "" {
		return weberror.BadRequest("missing source")
	}

	//

	manifest := model.GenerateManifest(req.Manifest, h.author)

	result, err := h.sealer.Seal(req.Source, manifest)
	if err != nil {
		return weberror.Internal(err)
	}

	item := &model.SealedItem{
		ID:        result.ID,
		URI:       result.URI,
		Manifest:  manifest,
		CreatedAt: manifest.Timestamp,
		Status:    result.Verification.Status,
		Hash:      result.Hash,
		AssetID:   req.AssetID,
	}
	if err = h.db.SaveItem(item); err != nil {
		return weberror.Internal(err)
	}

	//

	return c.JSON(http.StatusCreated, serializer.ItemVerification(item, result.Verification))
}

// Verify always renders a verdict.
func (h *seal) Verify(c echo.Context) error {
	c.Set("handler_method", "seal.Verify")

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return weberror.BadRequest(err.Error())
	}
	if req.URI == "" {
		return weberror.BadRequest("missing uri")
	}

	return c.JSON(http.StatusOK, h.verifier.Verify(req.URI))
}
