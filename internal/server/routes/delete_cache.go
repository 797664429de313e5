package routes

import (
	"net/http"

	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ClearCacheHandler wipes every cached entity, property, claim set and
// label result. The next requests repopulate the cache from upstream.
func ClearCacheHandler(c echo.Context) error {
	type clearResponse struct {
		Message string `json:"message"`
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Resolver

	if err := svc.ClearCache(ctx); err != nil {
		logger.Error("Failed to clear cache", "err", err)
		return c.JSON(http.StatusInternalServerError, clearResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, clearResponse{
		Message: "Cache cleared successfully",
	})
}
