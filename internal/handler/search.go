package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookshelf/bookshelf-go/internal/service"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

// SearchHandler handles catalog search requests.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// HandleSearch handles GET /api/search?q=&limit= requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, validation.NewError("limit", "limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// HandleISBN handles GET /api/search/isbn/{isbn} requests.
func (h *SearchHandler) HandleISBN(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SearchByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
