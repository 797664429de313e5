package routes

import (
	"net/http"

	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/pkg/common"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetClaimsHandler returns the typed claim sets for a set of entities,
// together with the cached entity records so the consumer can show
// labels and descriptions without another round trip.
func GetClaimsHandler(c echo.Context) error {
	type claimsBody struct {
		EntityIDs []common.EntityID `json:"entity_ids" validate:"required,min=1"`
	}

	type claimsResponse struct {
		Message  string                             `json:"message"`
		Claims   map[common.EntityID][]common.Claim `json:"claims,omitempty"`
		Entities map[common.EntityID]common.Entity  `json:"entities,omitempty"`
	}

	data := new(claimsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, claimsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, claimsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	claims, err := svc.GetClaims(ctx, data.EntityIDs)
	if err != nil {
		logger.Error("Failed to get claims", "entities", len(data.EntityIDs), "err", err)
		return c.JSON(http.StatusInternalServerError, claimsResponse{
			Message: "Internal server error",
		})
	}

	entities, err := svc.GetEntities(ctx, data.EntityIDs)
	if err != nil {
		logger.Error("Failed to get entity records", "entities", len(data.EntityIDs), "err", err)
		return c.JSON(http.StatusInternalServerError, claimsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, claimsResponse{
		Message:  "Claims fetched successfully",
		Claims:   claims,
		Entities: entities,
	})
}
