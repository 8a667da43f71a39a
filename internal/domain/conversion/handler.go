package conversion

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes the conversion service over HTTP.
type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes attaches the conversion endpoints to an echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/convert", h.Convert)
}

// Convert handles POST /api/convert: raw HL7v2 text in, normalized FHIR
// bundle JSON out.
func (h *Handler) Convert(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	out, err := h.svc.Convert(c.Request().Context(), body)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return c.JSONBlob(http.StatusBadRequest, []byte(`{"error":"HL7 message is empty"}`))
	case errors.Is(err, ErrConverter):
		h.log.Error().Err(err).Msg("upstream converter failed")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream conversion failed",
		})
	case err != nil:
		h.log.Error().Err(err).Msg("conversion failed")
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "application/json", out.Bundle)
}
