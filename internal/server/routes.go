package server

import (
	"github.com/OFFIS-RIT/papertext/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/papertext/backend/internal/server/routes"
	"github.com/OFFIS-RIT/papertext/backend/internal/timing"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(timing.Handler()))

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/documents", routes.CreateDocumentHandler)
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
	apiRoutes.PATCH("/documents/:id", routes.EditDocumentHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Corpus routes
	apiRoutes.POST("/corpora", routes.CreateCorpusHandler)
	apiRoutes.GET("/corpora", routes.GetCorporaHandler)
	apiRoutes.GET("/corpora/:id", routes.GetCorpusHandler)
	apiRoutes.PATCH("/corpora/:id", routes.EditCorpusHandler)
	apiRoutes.DELETE("/corpora/:id", routes.DeleteCorpusHandler)
}
