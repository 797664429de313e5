package routes

import (
	"net/http"

	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RankPropertiesHandler computes the ranked column-candidate list for a
// set of resolved entities.
func RankPropertiesHandler(c echo.Context) error {
	type rankBody struct {
		EntityIDs []common.EntityID `json:"entity_ids" validate:"required,min=1"`
	}

	type rankResponse struct {
		Message    string                `json:"message"`
		Properties []common.PropertyStat `json:"properties,omitempty"`
	}

	data := new(rankBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, rankResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, rankResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	stats, err := svc.RankProperties(ctx, data.EntityIDs)
	if err != nil {
		logger.Error("Failed to rank properties", "entities", len(data.EntityIDs), "err", err)
		return c.JSON(http.StatusInternalServerError, rankResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, rankResponse{
		Message:    "Properties ranked successfully",
		Properties: stats,
	})
}

// RecordPropertyUseHandler registers one column-add action for a
// property, feeding the cross-table usage ranking.
func RecordPropertyUseHandler(c echo.Context) error {
	type useParams struct {
		PropertyID string `param:"id" validate:"required,startswith=P"`
	}

	type useResponse struct {
		Message string `json:"message"`
	}

	params := new(useParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, useResponse{
			Message: "Invalid property id",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, useResponse{
			Message: "Invalid property id",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	if err := svc.RecordPropertyUse(ctx, common.PropertyID(params.PropertyID)); err != nil {
		logger.Error("Failed to record property use", "property_id", params.PropertyID, "err", err)
		return c.JSON(http.StatusInternalServerError, useResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, useResponse{
		Message: "Property use recorded",
	})
}
