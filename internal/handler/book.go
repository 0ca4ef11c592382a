package handler

import (
	"net/http"
	"strconv"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/service"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

// BookHandler handles HTTP requests for the caller's shelf.
type BookHandler struct {
	service *service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc *service.BookService) *BookHandler {
	return &BookHandler{service: svc}
}

// HandleList handles GET /api/books?status=&tag=&q= requests.
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := model.BookFilter{
		Status: query.Get("status"),
		Query:  query.Get("q"),
	}
	if raw := query.Get("tag"); raw != "" {
		tagID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tagID <= 0 {
			writeError(w, r, validation.NewError("tag", "tag must be a valid tag ID"))
			return
		}
		filter.TagID = &tagID
	}

	books, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

// HandleGet handles GET /api/books/{id} requests.
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "id", "book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	book, err := h.service.Get(r.Context(), userID, bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// HandleCreate handles POST /api/books requests.
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req model.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// HandleUpdate handles PUT /api/books/{id} requests.
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "id", "book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req model.UpdateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.service.Update(r.Context(), userID, bookID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// HandleDelete handles DELETE /api/books/{id} requests.
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "id", "book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, bookID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Book deleted"))
}
