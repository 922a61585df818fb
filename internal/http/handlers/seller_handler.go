package handlers

import (
	"errors"

	"glowshop/internal/domain"
	"glowshop/internal/log"
	"glowshop/internal/repos"
	"glowshop/internal/services"
	"glowshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SellerHandler struct {
	Catalog   *services.CatalogService
	Offers    *services.OfferService
	OfferRepo *repos.OfferRepo
}

// Form renders the product submission form with the current category and
// brand lists for the selects.
func (h *SellerHandler) Form(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	if len(snap.Categories) == 0 && snap.Err == "" {
		_ = h.Catalog.LoadAll()
		snap = h.Catalog.Snapshot()
	}
	return render(c, "seller", fiber.Map{
		"Categories": snap.Categories, "Brands": snap.Brands, "Err": "",
	})
}

// Submit creates the product and, when the form carries offer fields, its
// launch offer through the two-step offer write. A consistency gap on that
// second step is reported as a partial success, not a failure: the product
// and offer both exist.
func (h *SellerHandler) Submit(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return h.formErr(c, "Nombre inválido")
	}
	price, ok := validate.Price(c.FormValue("base_price"))
	if !ok || price == 0 {
		return h.formErr(c, "Precio inválido")
	}
	currency, ok := validate.Currency(c.FormValue("currency"))
	if !ok {
		return h.formErr(c, "Moneda inválida")
	}
	in := domain.ProductInput{
		Name:        name,
		Description: c.FormValue("description"),
		CategoryID:  c.FormValue("category_id"),
		BrandID:     c.FormValue("brand_id"),
		Qty:         validate.Qty(c.FormValue("qty")),
		BasePrice:   price,
		Currency:    currency,
		ImageURL:    c.FormValue("image_url"),
		Featured:    c.FormValue("featured") == "on",
	}

	p, err := h.Catalog.CreateProduct(in)
	if err != nil {
		log.Error(c, "seller.product.create", err, map[string]any{"name": name})
		return h.formErr(c, "No se pudo guardar el producto")
	}
	log.Audit(c, "seller.product.created", map[string]any{"id": p.ID})

	warning := ""
	var offer *domain.Offer
	if kind := c.FormValue("offer_kind"); kind != "" {
		value, _ := validate.Price(c.FormValue("offer_value"))
		special, _ := validate.Price(c.FormValue("offer_special"))
		o, oerr := h.Offers.Create(domain.OfferInput{
			ProductID:     p.ID,
			Kind:          domain.OfferKind(kind),
			DiscountValue: value,
			SpecialPrice:  special,
		})
		switch {
		case oerr == nil:
			offer = &o
		case errors.Is(oerr, services.ErrConsistencyGap):
			// Offer row persisted; only the product flag lagged.
			offer = &o
			warning = "Oferta guardada, pero el producto puede tardar en mostrarla"
			log.Error(c, "seller.offer.gap", oerr, map[string]any{"product_id": p.ID})
		default:
			warning = "El producto se guardó pero la oferta fue rechazada"
			log.Error(c, "seller.offer.create", oerr, map[string]any{"product_id": p.ID})
		}
	}

	return render(c, "seller_done", fiber.Map{
		"P": p, "Offer": offer, "Warning": warning,
	})
}

// ProductOffers lists a product's offers for the seller view.
func (h *SellerHandler) ProductOffers(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Producto no encontrado"})
	}
	offers, err := h.OfferRepo.ListByProduct(id)
	if err != nil {
		log.Error(c, "seller.offers.list", err, map[string]any{"product_id": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "No se pudieron cargar las ofertas"})
	}
	return render(c, "offers", fiber.Map{"ProductID": id, "Offers": offers})
}

// RemoveOffer deletes an offer and flips the product's flag back off.
func (h *SellerHandler) RemoveOffer(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err := h.Offers.Delete(id); err != nil && !errors.Is(err, services.ErrConsistencyGap) {
		log.Error(c, "seller.offer.delete", err, map[string]any{"offer_id": id})
		return c.Status(500).JSON(fiber.Map{"error": "could not delete offer"})
	}
	h.Catalog.InvalidateCache("products")
	h.Catalog.InvalidateCache("filtered_products")
	h.Catalog.InvalidateCache("product_by_id_")
	return c.Redirect("/seller")
}

func (h *SellerHandler) formErr(c *fiber.Ctx, msg string) error {
	snap := h.Catalog.Snapshot()
	return c.Status(fiber.StatusBadRequest).Render("seller", fiber.Map{
		"Categories": snap.Categories, "Brands": snap.Brands, "Err": msg,
	})
}
