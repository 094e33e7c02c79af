package certificateRoutes

import (
	certificateController "certgate/controllers/certificate"
	"certgate/middleware"
	certificateValidator "certgate/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	certGroup := app.Group("/certificates")

	certGroup.Get("/", middleware.JWTMiddleware, certificateController.GetCertificates)
	certGroup.Get("/:id", middleware.JWTMiddleware, certificateController.GetCertificate)

	certGroup.Get("/:id/burn/state", middleware.JWTMiddleware, certificateController.GetBurnState)
	certGroup.Put("/:id/burn/reason", middleware.JWTMiddleware, certificateController.SetBurnReason)
	certGroup.Post("/:id/burn", certificateValidator.BurnReason(), middleware.JWTMiddleware, certificateController.SubmitBurn)
	certGroup.Delete("/:id/burn", middleware.JWTMiddleware, certificateController.CancelBurn)
	certGroup.Post("/:id/burn/reset", middleware.JWTMiddleware, certificateController.ResetBurn)
}
