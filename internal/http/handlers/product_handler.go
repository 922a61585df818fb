package handlers

import (
	"glowshop/internal/log"
	"glowshop/internal/repos"
	"glowshop/internal/services"
	"glowshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Phone   string
}

// Detail renders the product page with its WhatsApp inquiry link. The qty
// query parameter (from the detail form) scales the composed message.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Este producto ya no está disponible"})
	}
	p, err := h.Catalog.FetchByID(id)
	if err != nil {
		if repos.IsNotFound(err) {
			return c.Status(404).Render("notfound", fiber.Map{"Message": "Este producto ya no está disponible"})
		}
		log.Error(c, "product.detail", err, map[string]any{"id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "No se pudo cargar el producto"})
	}

	qty := validate.Qty(c.Query("qty", "1"))
	msg := services.BuildInquiry(p, qty)
	return render(c, "product", fiber.Map{
		"P":          p,
		"Qty":        qty,
		"InquiryURL": services.InquiryURL(h.Phone, msg),
	})
}
