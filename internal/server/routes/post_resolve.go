package routes

import (
	"net/http"

	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/pkg/logger"
	"github.com/weft-labs/weft/backend/pkg/resolve"

	"github.com/labstack/echo/v4"
)

// ResolveRowsHandler resolves the cell texts of a table's key column to
// entities and reports the table's primary instance types.
func ResolveRowsHandler(c echo.Context) error {
	type resolveBody struct {
		Labels        []string `json:"labels" validate:"required,min=1"`
		SelectedTypes []string `json:"selected_types"`
	}

	type resolveResponse struct {
		Message string              `json:"message"`
		Result  *resolve.Resolution `json:"result,omitempty"`
	}

	data := new(resolveBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	result, err := svc.ResolveRows(ctx, data.Labels, data.SelectedTypes)
	if err != nil {
		logger.Error("Failed to resolve labels", "rows", len(data.Labels), "err", err)
		return c.JSON(http.StatusInternalServerError, resolveResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, resolveResponse{
		Message: "Labels resolved successfully",
		Result:  result,
	})
}
