// Package http wires the gin router for the booking engine. The routes
// mirror the studio's public API: a public catalog surface, an
// authenticated booking surface, and the instructor view.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	JWTSecret []byte
}

func NewRouter(cfg RouterConfig, bookingsH *BookingsHandler, catalogH *CatalogHandler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	public := api.Group("/public")
	public.GET("/classes", catalogH.ListClasses)
	public.GET("/classes/:id", catalogH.GetClass)
	public.GET("/classes/:id/slots", bookingsH.Slots)

	authed := api.Group("")
	authed.Use(RequireAuth(cfg.JWTSecret))
	authed.POST("/bookings", bookingsH.Create)
	authed.GET("/my-bookings", bookingsH.MyBookings)
	authed.PUT("/bookings/:id/status", bookingsH.UpdateStatus)
	authed.DELETE("/bookings/:id", bookingsH.Delete)
	authed.GET("/teacher/my-bookings", bookingsH.InstructorBookings)

	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "http.access"))
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()))
	}
}
