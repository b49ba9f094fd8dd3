package filter

import (
	"basket/internal/catalog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// MinPrice returns the lowest price among prices. When highlight is set and
// has at least one entry, only its entries count; otherwise it falls back to
// every merchant. ok is false when there are no prices at all.
func MinPrice(prices []catalog.Price, highlight catalog.ID) (decimal.Decimal, bool) {
	if len(prices) == 0 {
		return decimal.Zero, false
	}
	candidates := prices
	if highlight != "" {
		if own := lo.Filter(prices, func(p catalog.Price, _ int) bool { return p.MerchantID == highlight }); len(own) > 0 {
			candidates = own
		}
	}
	return lo.MinBy(candidates, func(a, b catalog.Price) bool {
		return a.Price.LessThan(b.Price)
	}).Price, true
}

// MerchantCount is the number of distinct merchants quoting a price.
func MerchantCount(prices []catalog.Price) int {
	return len(lo.UniqBy(prices, func(p catalog.Price) catalog.ID { return p.MerchantID }))
}

func FormatPrice(d decimal.Decimal, ok bool) string {
	if !ok {
		return notAvailable
	}
	return d.StringFixed(2)
}
