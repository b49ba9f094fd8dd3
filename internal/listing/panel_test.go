package listing

import (
	"basket/internal/catalog"
	"basket/internal/filter"
	"basket/internal/navigation"
	"context"
	"net/url"
	"testing"

	"github.com/samber/lo"
)

func sample(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewMock().Fetch(context.Background())
	if err != nil {
		t.Fatalf("mock catalog: %v", err)
	}
	return cat
}

func milkParams() navigation.Params {
	return navigation.Params{CategoryID: 1, SubCategoryID: lo.ToPtr(2), CategoryName: "Dairy"}
}

func rowIDs(p *Panel) []string {
	return lo.Map(p.Rows(), func(r filter.Row, _ int) string { return r.Product.ID.String() })
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewPanelDefaults(t *testing.T) {
	t.Parallel()

	p := NewPanel(sample(t), milkParams(), filter.Options{})
	if p.Set().Sort != filter.Ascending {
		t.Fatalf("expected ascending sort, got %q", p.Set().Sort)
	}
	// 102 min 0.95, 101 min 1.10, 103 min 1.80, 104 has no prices
	if got := rowIDs(p); !equal(got, []string{"102", "101", "103", "104"}) {
		t.Fatalf("unexpected rows: %v", got)
	}
	first := p.Rows()[0]
	if first.PriceText() != "0.95" || first.MerchantCount != 2 {
		t.Fatalf("unexpected first row: %s / %d", first.PriceText(), first.MerchantCount)
	}
}

func TestPanelTogglesReaggregate(t *testing.T) {
	t.Parallel()

	p := NewPanel(sample(t), milkParams(), filter.Options{})

	p.ToggleMerchant("3")
	if got := rowIDs(p); !equal(got, []string{"103"}) {
		t.Fatalf("expected only Masoutis products, got %v", got)
	}
	p.ToggleMerchant("2")
	if got := rowIDs(p); !equal(got, []string{"102", "101", "103"}) {
		t.Fatalf("unexpected rows after second merchant: %v", got)
	}
	p.ToggleMerchant("3")
	if got := rowIDs(p); !equal(got, []string{"102", "101"}) {
		t.Fatalf("unexpected rows after untoggle: %v", got)
	}

	p.ToggleSubSubCategory(20)
	if got := rowIDs(p); !equal(got, []string{"101"}) {
		t.Fatalf("unexpected rows with sub-sub-category: %v", got)
	}

	p.SetSort(filter.Descending)
	p.ToggleMerchant("2")
	if got := rowIDs(p); !equal(got, []string{"103", "101"}) {
		t.Fatalf("unexpected descending rows: %v", got)
	}
}

func TestPanelClearRestoresCategoryOnlyList(t *testing.T) {
	t.Parallel()

	cat := sample(t)
	base := NewPanel(cat, milkParams(), filter.Options{})
	want := rowIDs(base)

	p := NewPanel(cat, milkParams(), filter.Options{})
	p.ToggleMerchant("1")
	p.ToggleSubSubCategory(21)
	p.Clear()
	p.Apply()

	if got := rowIDs(p); !equal(got, want) {
		t.Fatalf("expected %v after clear, got %v", want, got)
	}
	if len(p.Set().Merchants) != 0 || len(p.Set().SubSubCategories) != 0 {
		t.Fatalf("expected empty toggles, got %+v", p.Set())
	}
}

func TestPanelFacets(t *testing.T) {
	t.Parallel()

	cat := sample(t)
	p := NewPanel(cat, milkParams(), filter.Options{})
	p.ToggleSubSubCategory(21)

	facets := p.SubSubCategories()
	if len(facets) != 2 || facets[0].ID != "20" || facets[1].Name != "Long-life milk" || !facets[1].Selected || facets[0].Selected {
		t.Fatalf("unexpected sub-sub facets: %+v", facets)
	}

	whole := NewPanel(cat, navigation.Params{CategoryID: 1}, filter.Options{})
	if got := len(whole.SubSubCategories()); got != 3 {
		t.Fatalf("expected facets of every Dairy sub-category, got %d", got)
	}

	merchants := p.Merchants()
	if len(merchants) != 3 || merchants[1].Name != "Sklavenitis" {
		t.Fatalf("unexpected merchant facets: %+v", merchants)
	}

	if facets := NewPanel(cat, navigation.Params{CategoryID: 42}, filter.Options{}).SubSubCategories(); facets != nil {
		t.Fatalf("expected no facets for unknown category, got %+v", facets)
	}
}

func TestPanelHighlightPricing(t *testing.T) {
	t.Parallel()

	cat := sample(t)
	p := NewPanel(cat, milkParams(), filter.Options{HighlightPricing: true})
	p.ToggleMerchant("1")

	// AB quotes 101 at 1.20 and 102 at 0.95
	prices := lo.Map(p.Rows(), func(r filter.Row, _ int) string { return r.Product.ID.String() + "=" + r.PriceText() })
	if !equal(prices, []string{"102=0.95", "101=1.20"}) {
		t.Fatalf("unexpected highlighted prices: %v", prices)
	}

	p.SetHighlight("3")
	prices = lo.Map(p.Rows(), func(r filter.Row, _ int) string { return r.Product.ID.String() + "=" + r.PriceText() })
	if !equal(prices, []string{"102=0.95", "101=1.10"}) {
		t.Fatalf("expected fallback to global minimum, got %v", prices)
	}
}

func TestPanelQueryRoundTrip(t *testing.T) {
	t.Parallel()

	cat := sample(t)
	p := NewPanel(cat, milkParams(), filter.Options{})
	p.ToggleMerchant("2")
	p.ToggleSubSubCategory(20)
	p.SetSort(filter.Descending)

	q := p.Query()
	params, err := navigation.ParseParams(q)
	if err != nil {
		t.Fatalf("parse params: %v", err)
	}
	restored := FromQuery(cat, params, q, filter.Options{})
	if !equal(rowIDs(restored), rowIDs(p)) {
		t.Fatalf("restored rows %v differ from %v", rowIDs(restored), rowIDs(p))
	}

	noisy := FromQuery(cat, milkParams(), url.Values{"subsub": {"x", "20", "20"}, "merchant": {"", "2"}, "sort": {"weird"}}, filter.Options{})
	set := noisy.Set()
	if len(set.SubSubCategories) != 1 || len(set.Merchants) != 1 || set.Sort != filter.Ascending {
		t.Fatalf("unexpected set from noisy query: %+v", set)
	}
}

func TestCategoryNameFallsBackToCatalog(t *testing.T) {
	t.Parallel()

	p := NewPanel(sample(t), navigation.Params{CategoryID: 4}, filter.Options{})
	if p.CategoryName() != "Bakery" {
		t.Fatalf("unexpected category name: %q", p.CategoryName())
	}
}
