// Package filter narrows a catalog's products down to a filter set and orders
// them by their cheapest merchant price.
package filter

import (
	"basket/internal/catalog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSort maps user input to a direction; anything unknown is ascending.
func ParseSort(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// Set is the user-controlled combination of facets that decides which
// products are visible. Empty Merchants or SubSubCategories mean "all".
type Set struct {
	CategoryID       int
	SubCategoryID    *int
	Merchants        []catalog.ID
	SubSubCategories []int
	Sort             SortDirection
	// Highlight restricts the displayed minimum price to one merchant when
	// Options.HighlightPricing is on.
	Highlight catalog.ID
}

type Options struct {
	HighlightPricing bool
}

// Row is a product with its derived fields for one aggregation pass.
type Row struct {
	Product       catalog.Product
	MinPrice      decimal.Decimal
	HasPrice      bool
	MerchantCount int
}

// PriceText is the two-decimal minimum price, or "N/A" without prices.
func (r Row) PriceText() string {
	return FormatPrice(r.MinPrice, r.HasPrice)
}

// Matches reports whether p satisfies every clause of set.
func Matches(p catalog.Product, set Set) bool {
	if !p.Categories.Contains(set.CategoryID) {
		return false
	}
	if set.SubCategoryID != nil && !p.Categories.Contains(*set.SubCategoryID) {
		return false
	}
	if len(set.Merchants) > 0 && !lo.SomeBy(p.Prices, func(price catalog.Price) bool {
		return lo.Contains(set.Merchants, price.MerchantID)
	}) {
		return false
	}
	if len(set.SubSubCategories) > 0 && !lo.Some([]int(p.Categories), set.SubSubCategories) {
		return false
	}
	return true
}

// Apply filters the full product list from scratch and sorts the survivors by
// minimum price. Products without any price sort last in either direction and
// keep their catalog order among themselves; equal prices keep catalog order.
func Apply(products []catalog.Product, set Set, opts Options) []Row {
	var highlight catalog.ID
	if opts.HighlightPricing {
		highlight = set.Highlight
	}

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		if !Matches(p, set) {
			continue
		}
		minPrice, ok := MinPrice(p.Prices, highlight)
		rows = append(rows, Row{
			Product:       p,
			MinPrice:      minPrice,
			HasPrice:      ok,
			MerchantCount: MerchantCount(p.Prices),
		})
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		switch {
		case !a.HasPrice && !b.HasPrice:
			return 0
		case !a.HasPrice:
			return 1
		case !b.HasPrice:
			return -1
		}
		if set.Sort == Descending {
			return b.MinPrice.Cmp(a.MinPrice)
		}
		return a.MinPrice.Cmp(b.MinPrice)
	})
	return rows
}
