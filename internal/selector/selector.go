// Package selector implements the two dependent category dropdowns that lead
// to the product list.
package selector

import (
	"basket/internal/catalog"
	"basket/internal/navigation"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrMissingSelection   = errors.New("a category and a sub-category must be selected")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownSubCategory = errors.New("unknown sub-category")
)

// Policy decides what gets selected when a dropdown is (re)populated.
type Policy string

const (
	PolicyFirst Policy = "first"
	PolicyNone  Policy = "none"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyNone:
		return PolicyNone, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q", s)
	}
}

func (p Policy) pick(ids []int) *int {
	if p != PolicyFirst || len(ids) == 0 {
		return nil
	}
	return lo.ToPtr(ids[0])
}

// Option is one dropdown entry.
type Option struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected,omitempty"`
}

type Selector struct {
	cat           *catalog.Catalog
	policy        Policy
	categoryID    *int
	subCategoryID *int
}

// New populates the category dropdown from cat and applies policy. A nil
// catalog (failed fetch) yields a selector with no categories.
func New(cat *catalog.Catalog, policy Policy) *Selector {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	s := &Selector{cat: cat, policy: policy}
	s.categoryID = policy.pick(lo.Map(cat.Categories, func(c catalog.Category, _ int) int { return c.ID }))
	s.resetSubCategory()
	return s
}

func (s *Selector) Categories() []Option {
	return lo.Map(s.cat.Categories, func(c catalog.Category, _ int) Option {
		return Option{ID: c.ID, Name: c.Name, Selected: s.categoryID != nil && *s.categoryID == c.ID}
	})
}

// SubCategories lists the sub-categories of the selected category.
func (s *Selector) SubCategories() []Option {
	c, ok := s.selectedCategory()
	if !ok {
		return nil
	}
	return lo.Map(c.SubCategories, func(sc catalog.SubCategory, _ int) Option {
		return Option{ID: sc.ID, Name: sc.Name, Selected: s.subCategoryID != nil && *s.subCategoryID == sc.ID}
	})
}

func (s *Selector) CategoryID() (int, bool) {
	if s.categoryID == nil {
		return 0, false
	}
	return *s.categoryID, true
}

func (s *Selector) SubCategoryID() (int, bool) {
	if s.subCategoryID == nil {
		return 0, false
	}
	return *s.subCategoryID, true
}

// SelectCategory switches category and re-derives the sub-category selection.
func (s *Selector) SelectCategory(id int) error {
	if _, ok := s.cat.Category(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, id)
	}
	s.categoryID = lo.ToPtr(id)
	s.resetSubCategory()
	return nil
}

func (s *Selector) SelectSubCategory(id int) error {
	c, ok := s.selectedCategory()
	if !ok {
		return ErrMissingSelection
	}
	if _, ok := c.SubCategory(id); !ok {
		return fmt.Errorf("%w: %d in category %d", ErrUnknownSubCategory, id, c.ID)
	}
	s.subCategoryID = lo.ToPtr(id)
	return nil
}

// Confirm hands the selection on to the product list. Both a category and a
// sub-category are required.
func (s *Selector) Confirm() (navigation.Params, error) {
	c, ok := s.selectedCategory()
	if !ok || s.subCategoryID == nil {
		return navigation.Params{}, ErrMissingSelection
	}
	return navigation.Params{
		CategoryID:    c.ID,
		SubCategoryID: lo.ToPtr(*s.subCategoryID),
		CategoryName:  c.Name,
	}, nil
}

func (s *Selector) selectedCategory() (*catalog.Category, bool) {
	if s.categoryID == nil {
		return nil, false
	}
	return s.cat.Category(*s.categoryID)
}

func (s *Selector) resetSubCategory() {
	s.subCategoryID = nil
	c, ok := s.selectedCategory()
	if !ok {
		return
	}
	s.subCategoryID = s.policy.pick(lo.Map(c.SubCategories, func(sc catalog.SubCategory, _ int) int { return sc.ID }))
}
