package v1

import (
	"go_fleet/api/v1/auth"
	"go_fleet/api/v1/deployments"
	"go_fleet/api/v1/groups"
	"go_fleet/api/v1/middleware"
	"go_fleet/api/v1/playbacklog"
	"go_fleet/api/v1/players"
	"go_fleet/internal/config"
	"go_fleet/internal/httpx"
	"go_fleet/internal/status"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries the shared services handlers need beyond the database.
type Deps struct {
	StatusWorker *status.Worker
	Logger       *logrus.Entry
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, db *gorm.DB, cfg *config.Config, deps Deps) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(db, cfg))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			playersHandler := players.NewHandler(db, deps.StatusWorker)
			playersGroup := protected.Group("/players")
			{
				playersGroup.GET("", playersHandler.List)
				playersGroup.GET("/:id", playersHandler.Get)
				playersGroup.POST("/create", playersHandler.Create)
				playersGroup.POST("/update", playersHandler.Update)
				playersGroup.POST("/delete", playersHandler.Delete)
				playersGroup.POST("/:id/check", playersHandler.Check)
				playersGroup.GET("/:id/screenshot", playersHandler.Screenshot)
				playersGroup.POST("/:id/reboot", playersHandler.Reboot)
				playersGroup.POST("/:id/shutdown", playersHandler.Shutdown)
				playersGroup.POST("/:id/backup", playersHandler.Backup)
				playersGroup.GET("/:id/assets", playersHandler.Assets)
				playersGroup.POST("/:id/assets/create", playersHandler.AssetCreate)
				playersGroup.POST("/:id/assets/update", playersHandler.AssetUpdate)
				playersGroup.POST("/:id/assets/delete", playersHandler.AssetDelete)
				playersGroup.POST("/:id/assets/order", playersHandler.PlaylistOrder)
				playersGroup.POST("/:id/assets/upload", playersHandler.AssetUpload)
				playersGroup.GET("/:id/schedule/slots", playersHandler.ScheduleSlots)
				playersGroup.POST("/:id/schedule/slots/create", playersHandler.ScheduleSlotCreate)
				playersGroup.POST("/:id/schedule/slots/update", playersHandler.ScheduleSlotUpdate)
				playersGroup.POST("/:id/schedule/slots/delete", playersHandler.ScheduleSlotDelete)
				playersGroup.GET("/:id/schedule/slots/:slotId/items", playersHandler.SlotItems)
				playersGroup.POST("/:id/schedule/slot-items/add", playersHandler.SlotItemAdd)
				playersGroup.POST("/:id/schedule/slot-items/remove", playersHandler.SlotItemRemove)
			}

			groupsHandler := groups.NewHandler(db)
			groupsGroup := protected.Group("/groups")
			{
				groupsGroup.GET("", groupsHandler.List)
				groupsGroup.POST("/create", groupsHandler.Create)
				groupsGroup.POST("/update", groupsHandler.Update)
				groupsGroup.POST("/delete", groupsHandler.Delete)
			}

			deploymentsHandler := deployments.NewHandler(db)
			deploymentsGroup := protected.Group("/deployments")
			{
				deploymentsGroup.GET("", deploymentsHandler.List)
				deploymentsGroup.GET("/:id", deploymentsHandler.Get)
			}

			playbackHandler := playbacklog.NewHandler(db, deps.Logger)
			protected.GET("/playback-logs", playbackHandler.List)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	username, _ := c.Get("username")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":      uid,
		"username": username,
		"role":     role,
	})
}
