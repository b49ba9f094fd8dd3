package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type summary struct {
	Cached     bool      `json:"cached"`
	FetchedAt  time.Time `json:"fetched_at,omitzero"`
	Categories int       `json:"categories"`
	Merchants  int       `json:"merchants"`
	Products   int       `json:"products"`
}

// Register exposes the shared catalog state and its invalidation.
func (s *Store) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", func(w http.ResponseWriter, r *http.Request) {
		var sum summary
		if cat, ok := s.Cached(); ok {
			sum = summary{
				Cached:     true,
				FetchedAt:  cat.FetchedAt,
				Categories: len(cat.Categories),
				Merchants:  len(cat.Merchants),
				Products:   len(cat.Products),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sum); err != nil {
			slog.ErrorContext(r.Context(), "failed to write catalog summary", "error", err)
		}
	})

	mux.HandleFunc("POST /api/catalog/invalidate", func(w http.ResponseWriter, r *http.Request) {
		s.Invalidate()
		slog.InfoContext(r.Context(), "catalog invalidated")
		w.WriteHeader(http.StatusNoContent)
	})
}
