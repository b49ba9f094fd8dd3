package navigation

import (
	"errors"
	"net/url"
	"testing"
)

func TestParamsRoundTripThroughURL(t *testing.T) {
	t.Parallel()

	sub := 2
	p := Params{CategoryID: 1, SubCategoryID: &sub, CategoryName: "Dairy & Eggs"}

	u, err := url.Parse(p.URL())
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Path != "/products" {
		t.Fatalf("unexpected path: %s", u.Path)
	}

	got, err := ParseParams(u.Query())
	if err != nil {
		t.Fatalf("parse params: %v", err)
	}
	if got.CategoryID != 1 || got.SubCategoryID == nil || *got.SubCategoryID != 2 || got.CategoryName != "Dairy & Eggs" {
		t.Fatalf("unexpected params: %+v", got)
	}
}

func TestParseParamsOptionalSubCategory(t *testing.T) {
	t.Parallel()

	got, err := ParseParams(url.Values{"category": {"6"}})
	if err != nil {
		t.Fatalf("parse params: %v", err)
	}
	if got.SubCategoryID != nil {
		t.Fatalf("expected no sub-category, got %d", *got.SubCategoryID)
	}
}

func TestParseParamsErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParseParams(url.Values{}); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
	if _, err := ParseParams(url.Values{"category": {"dairy"}}); err == nil {
		t.Fatal("expected error for non-numeric category")
	}
	if _, err := ParseParams(url.Values{"category": {"1"}, "subcategory": {"milk"}}); err == nil {
		t.Fatal("expected error for non-numeric subcategory")
	}
}

func TestTabsRouteToSelector(t *testing.T) {
	t.Parallel()

	tabs := Tabs()
	if len(tabs) != 5 || tabs[0].Name != "home" {
		t.Fatalf("unexpected tabs: %+v", tabs)
	}
	for _, tab := range tabs {
		if tab.Path != Path(CategorySelection) {
			t.Fatalf("tab %s routes to %s", tab.Name, tab.Path)
		}
	}
}
