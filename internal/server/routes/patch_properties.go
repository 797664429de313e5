package routes

import (
	"net/http"

	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EditPropertyHandler toggles a property's visibility in the candidate
// list.
func EditPropertyHandler(c echo.Context) error {
	type editPropertyBody struct {
		PropertyID string `param:"id" validate:"required,startswith=P"`
		Visible    *bool  `json:"visible" validate:"required"`
	}

	type editPropertyResponse struct {
		Message string `json:"message"`
	}

	data := new(editPropertyBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editPropertyResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editPropertyResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	if err := svc.SetPropertyVisible(ctx, common.PropertyID(data.PropertyID), *data.Visible); err != nil {
		logger.Error("Failed to update property", "property_id", data.PropertyID, "err", err)
		return c.JSON(http.StatusInternalServerError, editPropertyResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, editPropertyResponse{
		Message: "Property updated successfully",
	})
}
