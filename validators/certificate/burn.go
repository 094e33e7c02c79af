package certificateValidator

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"certgate/middleware"
	"certgate/models"
)

// BurnReason validates the burn reason payload before it reaches the
// workflow controller. The controller re-validates; this guard exists to
// reject malformed bodies early with field-level messages.
func BurnReason() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Reason) == "" {
			errors["reason"] = "Reason is required!"
		}
		if utf8.RuneCountInString(reqData.Reason) > models.MaxBurnReasonLength {
			errors["reason"] = "Reason must be at most 200 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReason", reqData.Reason)
		return c.Next()
	}
}
