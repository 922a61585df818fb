package services_test

import (
	"strings"
	"testing"

	"glowshop/internal/domain"
	"glowshop/internal/services"
)

func inquiryProduct() domain.ProductView {
	p := domain.ProductView{BrandName: "MAC", FinalPrice: 45, CategoryName: "Bases"}
	p.Name = "Base Studio Fix"
	p.Currency = "USD"
	return p
}

func TestBuildInquirySingleUnit(t *testing.T) {
	msg := services.BuildInquiry(inquiryProduct(), 1)
	for _, want := range []string{"Base Studio Fix", "MAC", "USD45.00"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q: %s", want, msg)
		}
	}
	if strings.Contains(msg, "Total") {
		t.Fatal("single-unit message must not carry a total")
	}
}

func TestBuildInquiryMultipleUnitsCarriesTotal(t *testing.T) {
	msg := services.BuildInquiry(inquiryProduct(), 3)
	for _, want := range []string{"3 unidades", "USD45.00", "Total: USD135.00"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q: %s", want, msg)
		}
	}
}

func TestInquiryURLEscapesMessage(t *testing.T) {
	u := services.InquiryURL("79710328", "Hola! Me interesa: Base & más")
	if !strings.HasPrefix(u, "https://wa.me/79710328?text=") {
		t.Fatalf("bad deep link: %s", u)
	}
	if strings.ContainsAny(strings.TrimPrefix(u, "https://wa.me/79710328?text="), " &") {
		t.Fatalf("message not escaped: %s", u)
	}
}
