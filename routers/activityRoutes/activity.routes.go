package activityRoutes

import (
	activityController "certgate/controllers/activity"
	"certgate/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupActivityRoutes(app *fiber.App) {
	activityGroup := app.Group("/activities")

	activityGroup.Get("/", middleware.JWTMiddleware, activityController.GetActivities)
	activityGroup.Get("/counts", middleware.JWTMiddleware, activityController.GetActivityCounts)
	activityGroup.Get("/stats", middleware.JWTMiddleware, activityController.GetActivityStats)
	activityGroup.Post("/filter", middleware.JWTMiddleware, activityController.SetActivityFilter)
	activityGroup.Post("/pause", middleware.JWTMiddleware, activityController.PauseFeed)
	activityGroup.Post("/resume", middleware.JWTMiddleware, activityController.ResumeFeed)
	activityGroup.Post("/clear", middleware.JWTMiddleware, middleware.RequireRole("admin"), activityController.ClearFeed)
}
