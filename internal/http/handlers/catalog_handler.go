package handlers

import (
	"strconv"
	"strings"

	"glowshop/internal/filter"
	"glowshop/internal/log"
	"glowshop/internal/repos"
	"glowshop/internal/services"
	"glowshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// Browse renders the full catalog with client-chosen filters applied in
// memory over the unified list. Brand and category chips arrive as
// comma-separated display names; price bounds as decimals; sort as
// name|price|brand plus a direction.
func (h *CatalogHandler) Browse(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	if len(snap.Products) == 0 && snap.Err == "" {
		if err := h.Catalog.LoadAll(); err != nil {
			log.Error(c, "catalog.load", err, nil)
		}
		snap = h.Catalog.Snapshot()
	}

	crit := filter.Criteria{
		Brands:     splitList(c.Query("brand")),
		Categories: splitList(c.Query("category")),
	}
	if raw := c.Query("q"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			return c.Status(fiber.StatusBadRequest).Render("catalog", fiber.Map{
				"Products": []any{}, "Count": 0, "Err": "Búsqueda inválida (solo letras y números)",
			})
		}
		crit.Search = q
	}
	if v, err := strconv.ParseFloat(c.Query("min"), 64); err == nil && v > 0 {
		crit.PriceMin = v
	}
	if v, err := strconv.ParseFloat(c.Query("max"), 64); err == nil && v > 0 {
		crit.PriceMax = v
	}

	ps := filter.Apply(snap.Products, crit)

	sortKey := filter.SortKey(c.Query("sort", string(filter.SortName)))
	dir := filter.Asc
	if c.Query("dir") == string(filter.Desc) {
		dir = filter.Desc
	}
	ps = filter.SortBy(ps, sortKey, dir)

	return render(c, "catalog", fiber.Map{
		"Products": ps, "Count": len(ps),
		"Categories": snap.Categories, "Brands": snap.Brands,
		"Criteria": crit, "Sort": string(sortKey), "Dir": string(dir),
		"Err": snap.Err,
	})
}

// API serves the JSON product listing with server-side filters. Unlike
// Browse, combinations here hit the database (and the per-criteria cache).
func (h *CatalogHandler) API(c *fiber.Ctx) error {
	f := repos.ProductFilters{
		CategoryID: c.Query("category"),
		BrandID:    c.Query("brand"),
		Search:     c.Query("q"),
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil && v > 0 {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil && v > 0 {
		f.MaxPrice = v
	}
	if raw := c.Query("on_sale"); raw != "" {
		b := raw == "true" || raw == "1"
		f.OnSale = &b
	}
	if raw := c.Query("featured"); raw != "" {
		b := raw == "true" || raw == "1"
		f.Featured = &b
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 100 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		f.Offset = n
	}

	ps, err := h.Catalog.FetchFiltered(f)
	if err != nil {
		log.Error(c, "catalog.api", err, nil)
		return c.Status(500).JSON(fiber.Map{"error": "could not load products"})
	}
	return c.JSON(fiber.Map{"products": ps, "count": len(ps)})
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
