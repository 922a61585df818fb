package services

import (
	"errors"
	"fmt"

	"glowshop/internal/domain"
	applog "glowshop/internal/log"
)

// ErrConsistencyGap marks a partial success: the offer mutation persisted
// but the product's on-offer flag did not follow. Distinct from a plain
// fetch failure so callers can surface it without rolling anything back.
var ErrConsistencyGap = errors.New("offer saved but product flag update failed")

type OfferStore interface {
	Create(in domain.OfferInput) (domain.Offer, error)
	Update(id string, in domain.OfferInput) (domain.Offer, error)
	Delete(id string) (productID string, err error)
}

// FlagStore flips the denormalized on-offer flag on a product.
type FlagStore interface {
	SetOnOffer(id string, on bool) error
}

// ReconStore durably records partial writes for a later repair pass.
type ReconStore interface {
	Record(productID, detail string) error
}

// OfferService owns the two-step offer write: the offer row and the owning
// product's flag live in different tables and are not updated
// transactionally. Step two failing never undoes step one; it records a
// reconciliation task instead.
type OfferService struct {
	Offers OfferStore
	Flags  FlagStore
	Recon  ReconStore
}

func NewOfferService(offers OfferStore, flags FlagStore, recon ReconStore) *OfferService {
	return &OfferService{Offers: offers, Flags: flags, Recon: recon}
}

// Create persists the offer, then flips the product's flag on. A flag
// failure surfaces as ErrConsistencyGap alongside the persisted offer.
func (s *OfferService) Create(in domain.OfferInput) (domain.Offer, error) {
	o, err := s.Offers.Create(in)
	if err != nil {
		return domain.Offer{}, err
	}
	if err := s.Flags.SetOnOffer(o.ProductID, true); err != nil {
		s.reportGap(o.ProductID, "set on_offer=true", err)
		return o, fmt.Errorf("%w: %v", ErrConsistencyGap, err)
	}
	return o, nil
}

func (s *OfferService) Update(id string, in domain.OfferInput) (domain.Offer, error) {
	return s.Offers.Update(id, in)
}

// Delete removes the offer, then flips the flag back off.
func (s *OfferService) Delete(id string) error {
	productID, err := s.Offers.Delete(id)
	if err != nil {
		return err
	}
	if err := s.Flags.SetOnOffer(productID, false); err != nil {
		s.reportGap(productID, "set on_offer=false", err)
		return fmt.Errorf("%w: %v", ErrConsistencyGap, err)
	}
	return nil
}

func (s *OfferService) reportGap(productID, step string, err error) {
	applog.Data("warn", "offer.consistency_gap", err, map[string]any{"product_id": productID, "step": step})
	if s.Recon != nil {
		if rerr := s.Recon.Record(productID, step+": "+err.Error()); rerr != nil {
			applog.Data("error", "offer.recon_record_failed", rerr, map[string]any{"product_id": productID})
		}
	}
}
