package selector

import (
	"basket/internal/catalog"
	"basket/internal/navigation"
	"basket/internal/templates"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samber/lo"
)

type catalogGetter interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
}

type server struct {
	catalogs catalogGetter
	policy   Policy
}

func NewServer(catalogs catalogGetter, policy Policy) *server {
	return &server{catalogs: catalogs, policy: policy}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleSelector)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /api/categories", s.handleCategoriesAPI)
}

const (
	noticeFetchFailed      = "Categories could not be loaded right now."
	noticeMissingSelection = "Select both a category and a sub-category."
	noticeUnknownSelection = "That category is no longer available."
	noticePickSubCategory  = "Pick a sub-category for the selected category."
)

// load builds a selector for the request. A failed fetch is logged and
// yields an empty selector plus a notice.
func (s *server) load(ctx context.Context) (*Selector, string) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch catalog for category selection", "error", err)
		return New(nil, s.policy), noticeFetchFailed
	}
	return New(cat, s.policy), ""
}

// applyForm replays the dropdown choices carried by the request. Unless
// strict, a sub-category left over from the previously selected category is
// dropped in favour of the freshly derived one.
func applyForm(sel *Selector, r *http.Request, strict bool) error {
	if raw := r.FormValue("category"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ErrUnknownCategory
		}
		if err := sel.SelectCategory(id); err != nil {
			return err
		}
	}
	if raw := r.FormValue("subcategory"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ErrUnknownSubCategory
		}
		if err := sel.SelectSubCategory(id); err != nil {
			if !strict && errors.Is(err, ErrUnknownSubCategory) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *server) handleSelector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel, notice := s.load(ctx)
	if err := applyForm(sel, r, false); err != nil {
		slog.InfoContext(ctx, "ignoring stale category selection", "query", r.URL.RawQuery, "error", err)
		notice = noticeUnknownSelection
	}
	s.render(ctx, w, http.StatusOK, sel, notice)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	sel, notice := s.load(ctx)
	if notice != "" {
		s.render(ctx, w, http.StatusServiceUnavailable, sel, notice)
		return
	}
	if err := applyForm(sel, r, true); err != nil {
		slog.InfoContext(ctx, "rejected category selection", "form", r.Form, "error", err)
		notice := noticeUnknownSelection
		if errors.Is(err, ErrUnknownSubCategory) {
			notice = noticePickSubCategory
		}
		s.render(ctx, w, http.StatusUnprocessableEntity, sel, notice)
		return
	}

	params, err := sel.Confirm()
	if err != nil {
		slog.InfoContext(ctx, "search without complete selection", "form", r.Form, "error", err)
		s.render(ctx, w, http.StatusUnprocessableEntity, sel, noticeMissingSelection)
		return
	}
	http.Redirect(w, r, params.URL(), http.StatusSeeOther)
}

func (s *server) render(ctx context.Context, w http.ResponseWriter, status int, sel *Selector, notice string) {
	data := struct {
		Categories    []Option
		SubCategories []Option
		Notice        string
		Tabs          []navigation.Tab
	}{
		Categories:    sel.Categories(),
		SubCategories: sel.SubCategories(),
		Notice:        notice,
		Tabs:          navigation.Tabs(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Selector.Execute(w, data); err != nil {
		slog.ErrorContext(ctx, "selector template execute error", "error", err)
	}
}

type categoryJSON struct {
	Option
	SubCategories []Option `json:"sub_categories"`
}

func (s *server) handleCategoriesAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.ErrorContext(ctx, "failed to fetch catalog for categories api", "error", err)
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}

	sel := New(cat, s.policy)
	subID, hasSub := sel.SubCategoryID()
	out := lo.Map(sel.Categories(), func(c Option, _ int) categoryJSON {
		full, _ := cat.Category(c.ID)
		return categoryJSON{
			Option: c,
			SubCategories: lo.Map(full.SubCategories, func(sc catalog.SubCategory, _ int) Option {
				return Option{ID: sc.ID, Name: sc.Name, Selected: c.Selected && hasSub && sc.ID == subID}
			}),
		}
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.ErrorContext(ctx, "failed to write categories", "error", err)
	}
}
