package handler

import (
	"net/http"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/service"
)

// TagHandler handles HTTP requests for the caller's tags.
type TagHandler struct {
	service *service.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(svc *service.TagService) *TagHandler {
	return &TagHandler{service: svc}
}

// HandleList handles GET /api/tags requests.
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	tags, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}

// HandleCreate handles POST /api/tags requests.
func (h *TagHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req model.CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

// HandleUpdate handles PUT /api/tags/{id} requests.
func (h *TagHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	tagID, err := pathID(r, "id", "tag")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req model.UpdateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.service.Update(r.Context(), userID, tagID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tag)
}

// HandleDelete handles DELETE /api/tags/{id} requests.
func (h *TagHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	tagID, err := pathID(r, "id", "tag")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, tagID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Tag deleted"))
}
