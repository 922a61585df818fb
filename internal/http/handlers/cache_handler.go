package handlers

import (
	"glowshop/internal/log"
	"glowshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CacheHandler struct {
	Catalog *services.CatalogService
}

func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	s := h.Catalog.CacheStats()
	return c.JSON(fiber.Map{"total": s.Total, "valid": s.Valid, "expired": s.Expired})
}

// Invalidate drops every entry under a prefix; empty prefix is rejected so a
// sloppy call cannot flush everything.
func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	prefix := c.Query("prefix")
	if prefix == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prefix required"})
	}
	n := h.Catalog.InvalidateCache(prefix)
	log.Audit(c, "cache.invalidate", map[string]any{"prefix": prefix, "removed": n})
	return c.JSON(fiber.Map{"removed": n})
}

// Refresh drops the whole cache and reloads the read model.
func (h *CacheHandler) Refresh(c *fiber.Ctx) error {
	if err := h.Catalog.RefreshData(); err != nil {
		log.Error(c, "cache.refresh", err, nil)
		return c.Status(500).JSON(fiber.Map{"error": "reload failed"})
	}
	log.Audit(c, "cache.refresh", nil)
	return c.JSON(fiber.Map{"ok": true})
}
