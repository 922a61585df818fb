// Package filter is the pure, synchronous view engine over the unified
// product list. It never mutates its input; callers re-run Apply whenever
// the source list or the criteria change (recomputation is cheap at catalog
// scale, so derived results are not cached).
package filter

import (
	"sort"
	"strings"

	"glowshop/internal/domain"
)

// Criteria is the full filter state. Every field is independently optional;
// an empty/zero field places no constraint. Price bounds use 0 as
// "unbounded", which conflates zero with unset — a legitimate zero-price
// floor cannot be expressed (see DESIGN.md open questions).
type Criteria struct {
	Brands     []string
	Categories []string
	PriceMin   float64
	PriceMax   float64
	Search     string
}

// Apply filters products as a conjunction: a product must pass every active
// clause.
func Apply(products []domain.ProductView, c Criteria) []domain.ProductView {
	out := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		if passes(p, c) {
			out = append(out, p)
		}
	}
	return out
}

func passes(p domain.ProductView, c Criteria) bool {
	if len(c.Brands) > 0 && !contains(c.Brands, p.BrandName) {
		return false
	}
	if len(c.Categories) > 0 && !contains(c.Categories, p.CategoryName) {
		return false
	}
	if c.PriceMin > 0 && p.FinalPrice < c.PriceMin {
		return false
	}
	if c.PriceMax > 0 && p.FinalPrice > c.PriceMax {
		return false
	}
	if c.Search != "" {
		q := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.BrandName), q) &&
			!strings.Contains(strings.ToLower(p.CategoryName), q) {
			return false
		}
	}
	return true
}

type SortKey string

const (
	SortName  SortKey = "name"
	SortPrice SortKey = "price"
	SortBrand SortKey = "brand"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortBy returns a sorted copy. Name and brand compare case-insensitively,
// price numerically. Ties keep the source order (stable sort); callers must
// not assume any tie order beyond that.
func SortBy(products []domain.ProductView, key SortKey, dir Direction) []domain.ProductView {
	out := make([]domain.ProductView, len(products))
	copy(out, products)

	less := func(a, b domain.ProductView) bool {
		switch key {
		case SortPrice:
			return a.FinalPrice < b.FinalPrice
		case SortBrand:
			return strings.ToLower(a.BrandName) < strings.ToLower(b.BrandName)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
