package server

import (
	"github.com/weft-labs/weft/backend/internal/server/middleware"
	"github.com/weft-labs/weft/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Resolution routes
	apiRoutes.POST("/resolve", routes.ResolveRowsHandler)
	apiRoutes.POST("/claims", routes.GetClaimsHandler)

	// Property routes
	apiRoutes.POST("/properties/rank", routes.RankPropertiesHandler)
	apiRoutes.POST("/properties/:id/use", routes.RecordPropertyUseHandler)
	apiRoutes.PATCH("/properties/:id", routes.EditPropertyHandler)

	// Cache routes
	apiRoutes.DELETE("/cache", routes.ClearCacheHandler)
}
