package httpserver

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &productHandlers{svc: deps.Catalog, importer: deps.Importer, pageSize: deps.PageSize}

	products := router.Group("/products")
	{
		products.GET("", h.list)
		products.POST("", h.create)
		products.POST("/import", h.importBatch)
		products.GET("/:id", h.get)
		products.PUT("/:id", h.update)
		products.DELETE("/:id", h.delete)
		products.POST("/:id/image", h.replaceImage)
		products.DELETE("/:id/image", h.removeImage)
	}

	return router
}
