package handlers

import (
	"glowshop/internal/filter"
	"glowshop/internal/log"
	"glowshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type BrandHandler struct {
	Catalog *services.CatalogService
}

func (h *BrandHandler) List(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	if len(snap.Brands) == 0 && snap.Err == "" {
		if err := h.Catalog.LoadAll(); err != nil {
			log.Error(c, "brands.load", err, nil)
		}
		snap = h.Catalog.Snapshot()
	}
	return render(c, "brands", fiber.Map{"Brands": snap.Brands, "Err": snap.Err})
}

// Products lists one brand's products by display name (the criteria engine
// matches names, and brand pages are linked by name).
func (h *BrandHandler) Products(c *fiber.Ctx) error {
	name := c.Params("name")
	snap := h.Catalog.Snapshot()
	ps := filter.Apply(snap.Products, filter.Criteria{Brands: []string{name}})
	return render(c, "brand", fiber.Map{"Brand": name, "Products": ps, "Count": len(ps)})
}
