package services

import (
	"fmt"
	"net/url"
	"strconv"

	"glowshop/internal/domain"
)

// BuildInquiry composes the WhatsApp message for a product inquiry: name,
// brand, unit price, quantity and total. Opening the link is the
// presentation layer's job; this ends at the string.
func BuildInquiry(p domain.ProductView, qty int) string {
	if qty < 1 {
		qty = 1
	}
	msg := fmt.Sprintf("Hola! Me interesa el producto: %s de %s.", p.Name, p.BrandName)
	if qty == 1 {
		return msg + fmt.Sprintf(" Precio: %s%s.", p.Currency, money(p.FinalPrice))
	}
	total := p.FinalPrice * float64(qty)
	return msg + fmt.Sprintf(" Cantidad: %d unidades. Precio unitario: %s%s. Total: %s%s.",
		qty, p.Currency, money(p.FinalPrice), p.Currency, money(total))
}

// InquiryURL builds the wa.me deep link for a composed message.
func InquiryURL(phone, message string) string {
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(message)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
