package services_test

import (
	"errors"
	"testing"

	"glowshop/internal/domain"
	"glowshop/internal/repos"
	"glowshop/internal/services"
)

func TestCreateOfferFlipsProductFlag(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	svc := services.NewOfferService(repos.NewOfferRepo(db), prods, repos.NewReconRepo(db))

	o, err := svc.Create(domain.OfferInput{
		ProductID: "labial-chanel-01", Kind: domain.OfferFixedPrice, DiscountValue: 30,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if o.FinalPrice != 30 {
		t.Fatalf("fixed-price offer final must equal its magnitude, got %.2f", o.FinalPrice)
	}
	if o.StartsAt == "" {
		t.Fatal("start timestamp must default to now")
	}
	p, err := prods.GetByID("labial-chanel-01")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if !p.OnOffer {
		t.Fatal("product flag must flip on after offer create")
	}
	if len(p.Offers) != 1 || p.Offers[0].ID != o.ID {
		t.Fatalf("offer collection not normalized to list: %+v", p.Offers)
	}
	if p.FinalPrice != 30 {
		t.Fatalf("joined view must surface the offer price, got %.2f", p.FinalPrice)
	}
}

func TestDeleteOfferFlipsFlagBack(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	svc := services.NewOfferService(repos.NewOfferRepo(db), prods, repos.NewReconRepo(db))

	o, err := svc.Create(domain.OfferInput{
		ProductID: "base-mac-01", Kind: domain.OfferPercentage, DiscountValue: 20,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if o.FinalPrice != 36 { // 45 * 0.8
		t.Fatalf("percentage final price wrong: %.2f", o.FinalPrice)
	}
	if err := svc.Delete(o.ID); err != nil {
		t.Fatalf("delete offer: %v", err)
	}
	p, _ := prods.GetByID("base-mac-01")
	if p.OnOffer {
		t.Fatal("product flag must flip off after offer delete")
	}
	if len(p.Offers) != 0 {
		t.Fatalf("offer row should be gone: %+v", p.Offers)
	}
}

func TestOfferRejectedWhenFinalExceedsBase(t *testing.T) {
	db := memdb(t)
	offers := repos.NewOfferRepo(db)

	// labial base price is 38; a fixed final of 50 must be rejected before
	// persistence.
	_, err := offers.Create(domain.OfferInput{
		ProductID: "labial-chanel-01", Kind: domain.OfferFixedPrice, DiscountValue: 50,
	})
	if err == nil {
		t.Fatal("want rejection for final price above base")
	}
	var de *repos.DataError
	if !errors.As(err, &de) || de.Kind != repos.KindValidation {
		t.Fatalf("want validation kind, got %v", err)
	}
	rows, _ := offers.ListByProduct("labial-chanel-01")
	if len(rows) != 0 {
		t.Fatal("rejected offer must not persist")
	}
}

type brokenFlags struct{}

func (brokenFlags) SetOnOffer(string, bool) error { return errors.New("flag table locked") }

// The two-step write is not transactional: a flag failure surfaces as a
// consistency gap, the offer row stays, and the product remains fetchable.
func TestFlagFailureLeavesOfferAndProductIntact(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	recon := repos.NewReconRepo(db)
	svc := services.NewOfferService(repos.NewOfferRepo(db), brokenFlags{}, recon)

	o, err := svc.Create(domain.OfferInput{
		ProductID: "sombra-myb-01", Kind: domain.OfferPercentage, DiscountValue: 10,
	})
	if !errors.Is(err, services.ErrConsistencyGap) {
		t.Fatalf("want consistency-gap error, got %v", err)
	}
	if o.ID == "" {
		t.Fatal("offer must be returned despite the gap")
	}

	// Step one persisted.
	rows, err := repos.NewOfferRepo(db).ListByProduct("sombra-myb-01")
	if err != nil || len(rows) != 1 {
		t.Fatalf("offer row missing: %v %+v", err, rows)
	}
	// The owning product is still fetchable by id.
	p, err := prods.GetByID("sombra-myb-01")
	if err != nil {
		t.Fatalf("product fetch after gap: %v", err)
	}
	if p.OnOffer {
		t.Fatal("flag update failed, flag must still be off")
	}
	// And the gap was durably recorded for reconciliation.
	if n, _ := recon.PendingCount(); n != 1 {
		t.Fatalf("want 1 reconciliation task, got %d", n)
	}
}
