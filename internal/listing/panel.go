// Package listing is the product list screen: the aggregated rows plus the
// filter panel that mutates the filter set.
package listing

import (
	"basket/internal/catalog"
	"basket/internal/filter"
	"basket/internal/navigation"
	"net/url"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// Facet is one toggle in the filter panel.
type Facet struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// Panel owns the filter set for one product list and re-aggregates from the
// full product list on every change.
type Panel struct {
	cat       *catalog.Catalog
	params    navigation.Params
	opts      filter.Options
	set       filter.Set
	highlight catalog.ID
	rows      []filter.Row
}

// NewPanel starts with the defaults: no merchant or sub-sub-category toggled,
// ascending sort.
func NewPanel(cat *catalog.Catalog, params navigation.Params, opts filter.Options) *Panel {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	p := &Panel{
		cat:    cat,
		params: params,
		opts:   opts,
		set: filter.Set{
			CategoryID:    params.CategoryID,
			SubCategoryID: params.SubCategoryID,
			Sort:          filter.Ascending,
		},
	}
	p.refresh()
	return p
}

func (p *Panel) ToggleMerchant(id catalog.ID) {
	p.set.Merchants = toggle(p.set.Merchants, id)
	p.refresh()
}

func (p *Panel) ToggleSubSubCategory(id int) {
	p.set.SubSubCategories = toggle(p.set.SubSubCategories, id)
	p.refresh()
}

func (p *Panel) SetSort(d filter.SortDirection) {
	p.set.Sort = d
	p.refresh()
}

// SetHighlight pins the merchant whose price is shown when highlight pricing
// is enabled. An empty id falls back to the single selected merchant, if any.
func (p *Panel) SetHighlight(id catalog.ID) {
	p.highlight = id
	p.refresh()
}

// Clear resets both toggle lists.
func (p *Panel) Clear() {
	p.set.Merchants = nil
	p.set.SubSubCategories = nil
	p.refresh()
}

// Apply re-runs the aggregation. Every mutation already does this; it is kept
// as the panel's explicit "results" action.
func (p *Panel) Apply() {
	p.refresh()
}

func (p *Panel) Rows() []filter.Row {
	return p.rows
}

func (p *Panel) Set() filter.Set {
	return p.set
}

func (p *Panel) Params() navigation.Params {
	return p.params
}

// CategoryName prefers the name handed over by the selector and falls back to
// the catalog.
func (p *Panel) CategoryName() string {
	if p.params.CategoryName != "" {
		return p.params.CategoryName
	}
	if c, ok := p.cat.Category(p.params.CategoryID); ok {
		return c.Name
	}
	return ""
}

// SubSubCategories lists the facets under the active sub-category, or under
// every sub-category of the category when none is active.
func (p *Panel) SubSubCategories() []Facet {
	c, ok := p.cat.Category(p.params.CategoryID)
	if !ok {
		return nil
	}
	subs := c.SubCategories
	if p.params.SubCategoryID != nil {
		subs = lo.Filter(subs, func(sc catalog.SubCategory, _ int) bool { return sc.ID == *p.params.SubCategoryID })
	}
	return lo.FlatMap(subs, func(sc catalog.SubCategory, _ int) []Facet {
		return lo.Map(sc.SubSubCategories, func(ssc catalog.SubSubCategory, _ int) Facet {
			return Facet{
				ID:       strconv.Itoa(ssc.ID),
				Name:     ssc.Name,
				Selected: slices.Contains(p.set.SubSubCategories, ssc.ID),
			}
		})
	})
}

func (p *Panel) Merchants() []Facet {
	return lo.Map(p.cat.Merchants, func(m catalog.Merchant, _ int) Facet {
		return Facet{
			ID:       m.ID.String(),
			Name:     m.DisplayName,
			Selected: slices.Contains(p.set.Merchants, m.ID),
		}
	})
}

func (p *Panel) refresh() {
	p.set.Highlight = p.highlight
	if p.set.Highlight == "" && len(p.set.Merchants) == 1 {
		p.set.Highlight = p.set.Merchants[0]
	}
	p.rows = filter.Apply(p.cat.Products, p.set, p.opts)
}

func toggle[T comparable](list []T, v T) []T {
	if slices.Contains(list, v) {
		return lo.Without(list, v)
	}
	return append(slices.Clone(list), v)
}

const (
	keySort      = "sort"
	keyMerchant  = "merchant"
	keySubSub    = "subsub"
	keyHighlight = "highlight"
)

// FromQuery rebuilds a panel from the product screen's query string.
// Unparseable sub-sub-category ids are ignored.
func FromQuery(cat *catalog.Catalog, params navigation.Params, q url.Values, opts filter.Options) *Panel {
	p := NewPanel(cat, params, opts)
	p.set.Sort = filter.ParseSort(q.Get(keySort))
	for _, m := range lo.Uniq(q[keyMerchant]) {
		if m != "" {
			p.set.Merchants = append(p.set.Merchants, catalog.ID(m))
		}
	}
	for _, raw := range lo.Uniq(q[keySubSub]) {
		if id, err := strconv.Atoi(raw); err == nil {
			p.set.SubSubCategories = append(p.set.SubSubCategories, id)
		}
	}
	p.highlight = catalog.ID(q.Get(keyHighlight))
	p.refresh()
	return p
}

// Query encodes the navigation params and the current filter state.
func (p *Panel) Query() url.Values {
	q := p.params.Values()
	q.Set(keySort, string(p.set.Sort))
	for _, m := range p.set.Merchants {
		q.Add(keyMerchant, m.String())
	}
	for _, id := range p.set.SubSubCategories {
		q.Add(keySubSub, strconv.Itoa(id))
	}
	if p.highlight != "" {
		q.Set(keyHighlight, p.highlight.String())
	}
	return q
}
