package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftboard/config"
	"shiftboard/internal/api/handler"
	"shiftboard/internal/api/middleware"
	"shiftboard/internal/model"
	"shiftboard/pkg/jwt"
	"shiftboard/pkg/redis"
)

// maxBodyBytes bounds JSON request bodies; the largest is a multi-unit publish
const maxBodyBytes = 1 << 20

// Setup builds the gin engine
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limited := middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	managers := middleware.RoleAuth(model.RoleAdmin, model.RoleStoreManager)

	// ── API v1 (all authenticated) ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		users := v1.Group("/users/me")
		{
			users.GET("", h.User.GetMe)
			users.PUT("/push-token", limited, h.User.UpdatePushToken)
		}

		// store scope and permission checks happen in the service layer
		settings := v1.Group("/settings")
		{
			settings.GET("", h.Settings.GetSettings)
			settings.PUT("", managers, limited, h.Settings.UpdateSettings)
			settings.PUT("/event-mappings", adminOnly, limited, h.Settings.UpdateEventMappings)
		}

		registrations := v1.Group("/registrations")
		{
			registrations.POST("", limited, h.Registration.Submit)
			registrations.GET("/me", h.Registration.GetMine)
			registrations.GET("", managers, h.Registration.ListWeek)
		}

		schedules := v1.Group("/schedules")
		{
			schedules.GET("/units", managers, h.Schedule.ListUnits)
			schedules.POST("/publish", managers, limited, h.Schedule.Publish)
			schedules.POST("/force-assign", managers, limited, h.Schedule.ForceAssign)
			schedules.POST("/force-remove", managers, limited, h.Schedule.ForceRemove)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}

		templates := v1.Group("/notification-templates", adminOnly)
		{
			templates.GET("", h.Template.List)
			templates.GET("/:id", h.Template.Get)
			templates.POST("", limited, h.Template.Create)
			templates.PUT("/:id", limited, h.Template.Update)
			templates.DELETE("/:id", limited, h.Template.Delete)
		}

		broadcasts := v1.Group("/broadcast-tasks", adminOnly)
		{
			broadcasts.GET("", h.Broadcast.List)
			broadcasts.POST("", limited, h.Broadcast.Create)
			broadcasts.POST("/run", limited, h.Broadcast.RunDue)
		}

		export := v1.Group("/export")
		{
			export.GET("/roster", managers, h.Export.ExportRoster)
			export.GET("/my-shifts.ics", h.Export.ExportMyShifts)
		}
	}

	return r
}
