package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Catalog is one snapshot of the price feed.
type Catalog struct {
	Categories []Category `json:"categories"`
	Merchants  []Merchant `json:"merchants"`
	Products   []Product  `json:"products"`
	FetchedAt  time.Time  `json:"-"`
}

type Category struct {
	ID            int           `json:"uuid"`
	Name          string        `json:"name"`
	SubCategories []SubCategory `json:"sub_categories"`
}

type SubCategory struct {
	ID               int              `json:"uuid"`
	Name             string           `json:"name"`
	SubSubCategories []SubSubCategory `json:"sub_sub_categories"`
}

// SubSubCategory is only used as a filter facet.
type SubSubCategory struct {
	ID   int    `json:"uuid"`
	Name string `json:"name"`
}

type Merchant struct {
	ID          ID     `json:"merchant_uuid"`
	DisplayName string `json:"display_name"`
}

// Product membership is flat: Categories holds the category, sub-category and
// sub-sub-category ids the product belongs to.
type Product struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Categories IDList    `json:"category"`
	Prices     PriceList `json:"prices"`
}

type Price struct {
	MerchantID ID              `json:"merchant_uuid"`
	Price      decimal.Decimal `json:"price"`
}

// PriceList drops entries whose price is null or not a number, so one bad
// entry neither fails the document nor undercuts the real minimum.
type PriceList []Price

func (l *PriceList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	prices := make(PriceList, 0, len(raw))
	for _, r := range raw {
		var entry struct {
			MerchantID ID                  `json:"merchant_uuid"`
			Price      decimal.NullDecimal `json:"price"`
		}
		if err := json.Unmarshal(r, &entry); err != nil || !entry.Price.Valid {
			continue
		}
		prices = append(prices, Price{MerchantID: entry.MerchantID, Price: entry.Price.Decimal})
	}
	*l = prices
	return nil
}

// ID is an identifier the feed sends either as a string or as a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// IDList holds category ids. Entries that are not integers (or strings holding
// integers) are dropped so a single bad entry does not poison the document.
type IDList []int

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// not an array: treat the product as having no categories
		*l = nil
		return nil
	}
	ids := make(IDList, 0, len(raw))
	for _, r := range raw {
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			continue
		}
		var n int
		if err := json.Unmarshal(r, &n); err == nil {
			ids = append(ids, n)
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if n, err := strconv.Atoi(s); err == nil {
				ids = append(ids, n)
			}
		}
	}
	*l = ids
	return nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id int) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Category returns the category with the given id.
func (c *Catalog) Category(id int) (*Category, bool) {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// SubCategory returns the sub-category with the given id under category.
func (c *Category) SubCategory(id int) (*SubCategory, bool) {
	for i := range c.SubCategories {
		if c.SubCategories[i].ID == id {
			return &c.SubCategories[i], true
		}
	}
	return nil, false
}
