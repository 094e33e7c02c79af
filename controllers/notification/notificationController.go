package controllers

import (
	"github.com/gofiber/fiber/v2"

	"certgate/middleware"
	"certgate/notify"
)

// Notifications is the center shared by the notification handlers.
var Notifications *notify.Center

// Setup wires the notification handlers to the center.
func Setup(center *notify.Center) {
	Notifications = center
}

// GetNotifications returns the active notification queue.
func GetNotifications(c *fiber.Ctx) error {
	items := Notifications.List()
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched successfully!", fiber.Map{
		"notifications": items,
		"total":         len(items),
	})
}

// DismissNotification removes a notification by id. Dismissing an unknown or
// already-expired id succeeds; removal is idempotent.
func DismissNotification(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Notification id is required!", nil)
	}

	Notifications.Remove(id)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification dismissed.", nil)
}
