package handlers

import (
	"glowshop/internal/config"
	"glowshop/internal/repos"
	"glowshop/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler     *CategoryHandler
	BrandHandler        *BrandHandler
	CatalogHandler      *CatalogHandler
	ProductHandler      *ProductHandler
	ConsultationHandler *ConsultationHandler
	SellerHandler       *SellerHandler
	CacheHandler        *CacheHandler
}

// NewDeps wires handlers to the shared catalog and offer services. Those are
// built in main because their lifecycle (cache sweep, Close) belongs there.
func NewDeps(db *sqlx.DB, cfg config.Config, catalog *services.CatalogService, offers *services.OfferService) *Deps {
	offerRepo := repos.NewOfferRepo(db)

	return &Deps{
		CategoryHandler:     &CategoryHandler{Catalog: catalog},
		BrandHandler:        &BrandHandler{Catalog: catalog},
		CatalogHandler:      &CatalogHandler{Catalog: catalog},
		ProductHandler:      &ProductHandler{Catalog: catalog, Phone: cfg.WhatsAppPhone},
		ConsultationHandler: &ConsultationHandler{Catalog: catalog},
		SellerHandler:       &SellerHandler{Catalog: catalog, Offers: offers, OfferRepo: offerRepo},
		CacheHandler:        &CacheHandler{Catalog: catalog},
	}
}
