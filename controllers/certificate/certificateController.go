package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"certgate/burn"
	"certgate/database"
	"certgate/middleware"
	"certgate/models"
)

// Burns is the workflow registry shared by the certificate handlers.
var Burns *burn.Registry

// Setup wires the certificate handlers to the burn workflow registry.
func Setup(registry *burn.Registry) {
	Burns = registry
}

func certIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetCertificates returns the visible certificate collection: the mirrored
// records minus the hidden-after-burn set.
func GetCertificates(c *fiber.Ctx) error {
	var certificates []models.Certificate
	err := database.Database.Db.
		Order("ledger_id asc").
		Find(&certificates).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	visible := Burns.Grid().Visible(certificates)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": visible,
		"total":        len(visible),
	})
}

// GetCertificate returns a single mirrored certificate record.
func GetCertificate(c *fiber.Ctx) error {
	certID, ok := certIDParam(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	var certificate models.Certificate
	if err := database.Database.Db.Where("ledger_id = ?", certID).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", certificate)
}

// SetBurnReason records the entered burn reason. Invalid text is kept and
// the validation message surfaced inline; only submission is blocked.
func SetBurnReason(c *fiber.Ctx) error {
	certID, ok := certIDParam(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	reqData := new(struct {
		Reason string `json:"reason"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	flow := Burns.Flow(certID)
	if _, err := flow.SetReason(reqData.Reason); err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Burn submission already in flight!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reason recorded.", flow.View())
}

// SubmitBurn initiates the burn workflow for a certificate. Privileged
// actors get the direct path, everyone else the timelocked request path.
func SubmitBurn(c *fiber.Ctx) error {
	actor, ok := c.Locals("actorAddress").(string)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certID, idOK := certIDParam(c)
	if !idOK {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	reason, _ := c.Locals("validatedReason").(string)
	flow := Burns.Flow(certID)
	if _, err := flow.SetReason(reason); err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Burn submission already in flight!", flow.View())
	}

	err := flow.Submit(c.Context(), actor)
	switch {
	case errors.Is(err, burn.ErrSubmitInFlight):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Burn submission already in flight!", flow.View())
	case errors.Is(err, burn.ErrInvalidReason):
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, flow.View().ValidationError, flow.View())
	case errors.Is(err, burn.ErrRevokedCertificate):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Revoked certificates cannot be burn-requested!", flow.View())
	case err != nil:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit burn!", flow.View())
	}

	return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Burn submitted.", flow.View())
}

// CancelBurn withdraws a pending, unapproved burn request.
func CancelBurn(c *fiber.Ctx) error {
	certID, ok := certIDParam(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	flow := Burns.Flow(certID)
	err := flow.CancelRequest(c.Context())
	switch {
	case errors.Is(err, burn.ErrSubmitInFlight):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Burn submission already in flight!", flow.View())
	case errors.Is(err, burn.ErrNoCancellableRequest):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "No cancellable burn request!", flow.View())
	case err != nil:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel burn request!", flow.View())
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Burn request cancelled.", flow.View())
}

// GetBurnState returns the workflow and animation snapshots driving the UI.
func GetBurnState(c *fiber.Ctx) error {
	certID, ok := certIDParam(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	flow := Burns.Flow(certID)
	animationView := models.BurnAnimationView{Phase: models.AnimInactive}
	if animation := Burns.Grid().Animation(certID); animation != nil {
		animationView = animation.View()
	}

	remaining := ""
	var certificate models.Certificate
	err := database.Database.Db.Where("ledger_id = ?", certID).First(&certificate).Error
	if err == nil && certificate.BurnRequestTime != nil {
		elapsed := time.Now().UnixMilli() - *certificate.BurnRequestTime
		remaining = burn.FormatTimelock(Burns.TimelockSeconds() - elapsed/1000)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Burn state fetched successfully!", fiber.Map{
		"workflow":          flow.View(),
		"animation":         animationView,
		"hidden":            Burns.Grid().IsHidden(certID),
		"timelockRemaining": remaining,
	})
}

// ResetBurn returns the workflow to idle when the UI closes it.
func ResetBurn(c *fiber.Ctx) error {
	certID, ok := certIDParam(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	flow := Burns.Flow(certID)
	if err := flow.Reset(); err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Burn submission already in flight!", flow.View())
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Burn workflow reset.", flow.View())
}
