package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// defaultPageSize matches the upstream API when no limit is given.
const defaultPageSize = 30

// LoadEntries reads a catalog JSON file in the /products response shape.
func LoadEntries(path string) ([]types.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return decode(f)
}

// Marshal renders entries in the /products response shape.
func Marshal(entries []types.CatalogEntry) ([]byte, error) {
	body := response{
		Products: make([]product, 0, len(entries)),
		Total:    len(entries),
		Limit:    len(entries),
	}
	for _, e := range entries {
		body.Products = append(body.Products, toProduct(e))
	}
	return json.MarshalIndent(body, "", "  ")
}

// Handler serves entries at GET /products?limit=N&skip=M. limit=0 returns
// everything from skip onwards.
func Handler(entries []types.CatalogEntry) http.Handler {
	s := &server{entries: entries}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	return r
}

type server struct {
	entries []types.CatalogEntry
}

func (s *server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntDefault(q.Get("limit"), defaultPageSize)
	skip := parseIntDefault(q.Get("skip"), 0)

	if skip > len(s.entries) {
		skip = len(s.entries)
	}
	end := len(s.entries)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	page := s.entries[skip:end]
	body := response{
		Products: make([]product, 0, len(page)),
		Total:    len(s.entries),
		Skip:     skip,
		Limit:    len(page),
	}
	for _, e := range page {
		body.Products = append(body.Products, toProduct(e))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	for _, e := range s.entries {
		if e.ID == id {
			writeJSON(w, http.StatusOK, toProduct(e))
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("product with id '%d' not found", id))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}
