package handlers

import (
	"glowshop/internal/domain"
	"glowshop/internal/log"
	"glowshop/internal/services"
	"glowshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ConsultationHandler struct {
	Catalog *services.CatalogService
}

// Register records a product consultation right before the WhatsApp
// hand-off. Always 202 on a well-formed request: the client opens the chat
// regardless, so a failed write must not block it.
func (h *ConsultationHandler) Register(c *fiber.Ctx) error {
	var body struct {
		ProductID string `json:"product_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		body.ProductID = c.FormValue("product_id")
	}
	id, ok := validate.ID(body.ProductID)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product_id"})
	}

	meta := domain.ConsultationMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
		SessionID: c.Cookies("sid"),
	}
	recorded := h.Catalog.RegisterConsultation(id, meta)
	if !recorded {
		log.Info(c, "consultation.dropped", map[string]any{"product_id": id})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"recorded": recorded})
}

// MostRequested serves the consultation-volume ranking.
func (h *ConsultationHandler) MostRequested(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	return c.JSON(fiber.Map{"most_requested": snap.MostRequested})
}
