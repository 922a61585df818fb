package handlers

import (
	"glowshop/internal/domain"
	"glowshop/internal/log"
	"glowshop/internal/services"
	"glowshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// Home shows the storefront: category tiles, featured products and the
// most-requested ranking.
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	if len(snap.Products) == 0 && snap.Err == "" {
		if err := h.Catalog.LoadAll(); err != nil {
			log.Error(c, "home.load", err, nil)
		}
		snap = h.Catalog.Snapshot()
	}

	var featured []domain.ProductView
	for _, p := range snap.Products {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return render(c, "home", fiber.Map{
		"Categories":    snap.Categories,
		"Featured":      featured,
		"MostRequested": snap.MostRequested,
		"Err":           snap.Err,
	})
}

// List shows one category's products, most stock first.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Esta categoría no existe"})
	}
	all, err := h.Catalog.FetchByCategory()
	if err != nil {
		log.Error(c, "category.list", err, map[string]any{"category": catID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "No se pudieron cargar los productos"})
	}
	// The grouped listing is keyed by id, not display name, so select here
	// instead of going through the name-based criteria engine.
	ps := make([]domain.ProductView, 0, len(all))
	for _, p := range all {
		if p.CategoryID == catID {
			ps = append(ps, p)
		}
	}
	return render(c, "category", fiber.Map{"CategoryID": catID, "Products": ps, "Count": len(ps)})
}
