package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"

	"certgate/feed"
	"certgate/middleware"
)

// Feed is the subscription manager shared by the activity handlers.
var Feed *feed.Manager

// Setup wires the activity handlers to the feed manager.
func Setup(manager *feed.Manager) {
	Feed = manager
}

// GetActivities returns the activity log, optionally filtered by category.
func GetActivities(c *fiber.Ctx) error {
	category := c.Query("category")
	activities := Feed.Activities(category)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activities fetched successfully!", fiber.Map{
		"activities": activities,
		"total":      len(activities),
		"paused":     Feed.Paused(),
	})
}

// GetActivityCounts returns per-category totals for the feed tabs.
func GetActivityCounts(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity counts fetched successfully!", Feed.Counts())
}

// GetActivityStats returns feed statistics for the dashboard header.
func GetActivityStats(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activity stats fetched successfully!", fiber.Map{
		"total": Feed.Len(),
		"today": Feed.CountSince(now.BeginningOfDay()),
	})
}

// SetActivityFilter stores the read-side category filter.
func SetActivityFilter(c *fiber.Ctx) error {
	reqData := new(struct {
		Category string `json:"category"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	Feed.SetFilter(reqData.Category)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Filter updated.", nil)
}

// PauseFeed stops live events from entering the log.
func PauseFeed(c *fiber.Ctx) error {
	Feed.Pause()
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feed paused.", nil)
}

// ResumeFeed re-enables live observation. Nothing missed while paused is
// replayed.
func ResumeFeed(c *fiber.Ctx) error {
	Feed.Resume()
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feed resumed.", nil)
}

// ClearFeed empties the activity log.
func ClearFeed(c *fiber.Ctx) error {
	Feed.Clear()
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feed cleared.", nil)
}
