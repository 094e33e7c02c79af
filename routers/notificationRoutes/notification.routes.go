package notificationRoutes

import (
	notificationController "certgate/controllers/notification"
	"certgate/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App) {
	notificationGroup := app.Group("/notifications")

	notificationGroup.Get("/", middleware.JWTMiddleware, notificationController.GetNotifications)
	notificationGroup.Delete("/:id", middleware.JWTMiddleware, notificationController.DismissNotification)
}
