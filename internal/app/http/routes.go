package routes

import (
	customizerapi "storefront-customizer/internal/api/customizer"
	"storefront-customizer/internal/app/http/middleware"
	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/infra/logger"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *customizerapi.Handler, auth customizer.AuthResolver, log *logger.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Authenticated editor surface
	editor := r.Group("/customizer")
	editor.Use(
		middleware.AuthMiddleware(auth, log),
		middleware.SanitizeAndCleanInputMiddleware("custom_css"),
	)
	h.Register(editor)
}
