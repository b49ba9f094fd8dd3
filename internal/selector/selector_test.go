package selector

import (
	"basket/internal/catalog"
	"context"
	"errors"
	"testing"
)

func sample(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewMock().Fetch(context.Background())
	if err != nil {
		t.Fatalf("mock catalog: %v", err)
	}
	return cat
}

func TestNewSelectsFirstCategoryAndSubCategory(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyFirst)

	if id, ok := s.CategoryID(); !ok || id != 1 {
		t.Fatalf("expected category 1 selected, got %d %v", id, ok)
	}
	if id, ok := s.SubCategoryID(); !ok || id != 2 {
		t.Fatalf("expected sub-category 2 selected, got %d %v", id, ok)
	}
	cats := s.Categories()
	if len(cats) != 3 || !cats[0].Selected || cats[1].Selected {
		t.Fatalf("unexpected category options: %+v", cats)
	}
	subs := s.SubCategories()
	if len(subs) != 2 || subs[0].Name != "Milk" || !subs[0].Selected {
		t.Fatalf("unexpected sub-category options: %+v", subs)
	}
}

func TestPolicyNoneLeavesSelectionEmpty(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyNone)
	if _, ok := s.CategoryID(); ok {
		t.Fatal("expected no category selected")
	}
	if subs := s.SubCategories(); subs != nil {
		t.Fatalf("expected no sub-categories, got %+v", subs)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}

	if err := s.SelectCategory(1); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if _, ok := s.SubCategoryID(); ok {
		t.Fatal("policy none must not pick a sub-category")
	}
}

func TestSelectCategoryResetsSubCategory(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyFirst)
	if err := s.SelectSubCategory(3); err != nil {
		t.Fatalf("select sub-category: %v", err)
	}

	if err := s.SelectCategory(4); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if id, ok := s.SubCategoryID(); !ok || id != 5 {
		t.Fatalf("expected first sub-category of Bakery, got %d %v", id, ok)
	}

	if err := s.SelectCategory(6); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if _, ok := s.SubCategoryID(); ok {
		t.Fatal("expected sub-category cleared for category without sub-categories")
	}
	if len(s.SubCategories()) != 0 {
		t.Fatalf("expected no sub-category options, got %+v", s.SubCategories())
	}
}

func TestConfirmRequiresBothIDs(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyFirst)
	if err := s.SelectCategory(6); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
}

func TestConfirmHandsOnParams(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyFirst)
	if err := s.SelectSubCategory(3); err != nil {
		t.Fatalf("select sub-category: %v", err)
	}
	p, err := s.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.CategoryID != 1 || p.SubCategoryID == nil || *p.SubCategoryID != 3 || p.CategoryName != "Dairy" {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestSelectUnknownIDs(t *testing.T) {
	t.Parallel()

	s := New(sample(t), PolicyFirst)
	if err := s.SelectCategory(99); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if err := s.SelectSubCategory(5); !errors.Is(err, ErrUnknownSubCategory) {
		t.Fatalf("expected ErrUnknownSubCategory for another category's sub-category, got %v", err)
	}
	if id, _ := s.CategoryID(); id != 1 {
		t.Fatalf("failed selection must not change state, got category %d", id)
	}
}

func TestNilCatalogHasNoCategories(t *testing.T) {
	t.Parallel()

	s := New(nil, PolicyFirst)
	if len(s.Categories()) != 0 {
		t.Fatalf("expected no categories, got %+v", s.Categories())
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Policy{"": PolicyFirst, "first": PolicyFirst, " NONE ": PolicyNone} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("last"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
