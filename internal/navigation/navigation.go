// Package navigation names the screens of the app and the parameter bundle
// handed from the category selector to the product list.
package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type Screen string

const (
	CategorySelection Screen = "CategorySelection"
	ProductDetails    Screen = "ProductDetails"
)

var paths = map[Screen]string{
	CategorySelection: "/",
	ProductDetails:    "/products",
}

// Path returns the route serving screen.
func Path(screen Screen) string {
	return paths[screen]
}

// Params is what the selector hands to the product list.
type Params struct {
	CategoryID    int
	SubCategoryID *int
	CategoryName  string
}

const (
	keyCategory    = "category"
	keySubCategory = "subcategory"
	keyName        = "name"
)

var ErrMissingCategory = errors.New("category parameter is required")

// Values encodes p as query parameters.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set(keyCategory, strconv.Itoa(p.CategoryID))
	if p.SubCategoryID != nil {
		v.Set(keySubCategory, strconv.Itoa(*p.SubCategoryID))
	}
	if p.CategoryName != "" {
		v.Set(keyName, p.CategoryName)
	}
	return v
}

// URL is the product list location for p.
func (p Params) URL() string {
	return Path(ProductDetails) + "?" + p.Values().Encode()
}

// ParseParams decodes the bundle from query parameters.
func ParseParams(v url.Values) (Params, error) {
	raw := strings.TrimSpace(v.Get(keyCategory))
	if raw == "" {
		return Params{}, ErrMissingCategory
	}
	categoryID, err := strconv.Atoi(raw)
	if err != nil {
		return Params{}, fmt.Errorf("invalid category %q: %w", raw, err)
	}
	p := Params{
		CategoryID:   categoryID,
		CategoryName: v.Get(keyName),
	}
	if raw := strings.TrimSpace(v.Get(keySubCategory)); raw != "" {
		subID, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid subcategory %q: %w", raw, err)
		}
		p.SubCategoryID = &subID
	}
	return p, nil
}

// Tab is an entry of the bottom tab bar.
type Tab struct {
	Name  string
	Title string
	Icon  string
	Path  string
}

// Tabs mirrors the app's tab bar. Only Home has a screen of its own; the
// others are placeholders that land on the category selector.
func Tabs() []Tab {
	home := Path(CategorySelection)
	return []Tab{
		{Name: "home", Title: "Home", Icon: "home", Path: home},
		{Name: "barcode", Icon: "barcode", Path: home},
		{Name: "cart", Icon: "shopping-cart", Path: home},
		{Name: "fuel", Icon: "gas-pump", Path: home},
		{Name: "list", Icon: "list", Path: home},
	}
}
