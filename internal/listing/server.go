package listing

import (
	"basket/internal/catalog"
	"basket/internal/filter"
	"basket/internal/navigation"
	"basket/internal/templates"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

type catalogGetter interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
}

type server struct {
	catalogs     catalogGetter
	imageBaseURL string
	opts         filter.Options
}

func NewServer(catalogs catalogGetter, imageBaseURL string, opts filter.Options) *server {
	return &server{
		catalogs:     catalogs,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		opts:         opts,
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+navigation.Path(navigation.ProductDetails), s.handleProducts)
	mux.HandleFunc("GET /api/products", s.handleProductsAPI)
}

const (
	noticeFetchFailed     = "Products could not be loaded right now."
	noticeUnknownCategory = "This category is no longer available."
)

// ProductView is one rendered row.
type ProductView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url"`
	Price         string `json:"min_price"`
	MerchantCount int    `json:"merchant_count"`
}

func (s *server) imageURL(image string) string {
	if image == "" {
		return ""
	}
	return s.imageBaseURL + "/" + url.PathEscape(image)
}

func (s *server) views(rows []filter.Row) []ProductView {
	return lo.Map(rows, func(r filter.Row, _ int) ProductView {
		return ProductView{
			ID:            r.Product.ID.String(),
			Name:          r.Product.Name,
			ImageURL:      s.imageURL(r.Product.Image),
			Price:         r.PriceText(),
			MerchantCount: r.MerchantCount,
		}
	})
}

// load fetches the catalog and rebuilds the panel from the query. A failed
// fetch leaves the panel empty and returns a notice.
func (s *server) load(ctx context.Context, params navigation.Params, q url.Values) (*Panel, string, error) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch catalog for product list", "category", params.CategoryID, "error", err)
		return NewPanel(nil, params, s.opts), noticeFetchFailed, err
	}
	p := FromQuery(cat, params, q, s.opts)
	if _, ok := cat.Category(params.CategoryID); !ok {
		return p, noticeUnknownCategory, nil
	}
	return p, "", nil
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	params, err := navigation.ParseParams(q)
	if err != nil {
		slog.InfoContext(ctx, "product list without valid params", "query", r.URL.RawQuery, "error", err)
		http.Redirect(w, r, navigation.Path(navigation.CategorySelection), http.StatusSeeOther)
		return
	}

	panel, notice, err := s.load(ctx, params, q)
	if errors.Is(err, context.Canceled) {
		return
	}

	clearQuery := panel.Query()
	clearQuery.Del(keyMerchant)
	clearQuery.Del(keySubSub)
	clearQuery.Set("filters", "open")

	data := struct {
		CategoryName     string
		Rows             []ProductView
		Notice           string
		Nav              url.Values
		Sort             string
		SubSubCategories []Facet
		Merchants        []Facet
		ClearURL         string
		PanelOpen        bool
		Tabs             []navigation.Tab
	}{
		CategoryName:     panel.CategoryName(),
		Rows:             s.views(panel.Rows()),
		Notice:           notice,
		Nav:              params.Values(),
		Sort:             string(panel.Set().Sort),
		SubSubCategories: panel.SubSubCategories(),
		Merchants:        panel.Merchants(),
		ClearURL:         navigation.Path(navigation.ProductDetails) + "?" + clearQuery.Encode(),
		PanelOpen:        q.Get("filters") == "open",
		Tabs:             navigation.Tabs(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Products.Execute(w, data); err != nil {
		slog.ErrorContext(ctx, "products template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

type productsResponse struct {
	CategoryID       int           `json:"category_id"`
	SubCategoryID    *int          `json:"sub_category_id,omitempty"`
	CategoryName     string        `json:"category_name"`
	Sort             string        `json:"sort"`
	Count            int           `json:"count"`
	Products         []ProductView `json:"products"`
	SubSubCategories []Facet       `json:"sub_sub_categories"`
	Merchants        []Facet       `json:"merchants"`
}

func (s *server) handleProductsAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	params, err := navigation.ParseParams(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	panel, _, err := s.load(ctx, params, q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}

	rows := s.views(panel.Rows())
	resp := productsResponse{
		CategoryID:       params.CategoryID,
		SubCategoryID:    params.SubCategoryID,
		CategoryName:     panel.CategoryName(),
		Sort:             string(panel.Set().Sort),
		Count:            len(rows),
		Products:         rows,
		SubSubCategories: panel.SubSubCategories(),
		Merchants:        panel.Merchants(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to write products", "error", err)
	}
}
