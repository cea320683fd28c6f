package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"radiohits-backend-go/internal/models"
)

const carouselSize = 3

type ContentRequest struct {
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	ImageAssetID *string `json:"imageAssetId"`
}

func (req ContentRequest) fields() models.ContentFields {
	return models.ContentFields{Title: req.Title, Body: req.Body, ImageAssetID: req.ImageAssetID}
}

// kindParam resolves the {kind} URL segment or answers 404.
func kindParam(w http.ResponseWriter, r *http.Request) (models.ContentKind, bool) {
	kind, ok := models.ParseContentKind(chi.URLParam(r, "kind"))
	if !ok {
		WriteError(w, http.StatusNotFound, "Sección no encontrada.")
		return "", false
	}
	return kind, true
}

func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	result, err := s.Lister.ListQuery(r.Context(), kind, r.URL.Query())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.toListingDTO(result))
}

func (s *Server) PublicListContent(w http.ResponseWriter, r *http.Request) {
	s.listContent(w, r)
}

func (s *Server) StaffListContent(w http.ResponseWriter, r *http.Request) {
	s.listContent(w, r)
}

func (s *Server) PublicContentDetail(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	item, err := s.Content.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.toContentDTO(item))
}

func (s *Server) Carousel(w http.ResponseWriter, r *http.Request) {
	items, err := s.Lister.Recent(r.Context(), models.KindIndex, carouselSize)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": s.toContentDTOs(items)})
}

func (s *Server) CreateContent(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := s.Content.Create(r.Context(), kind, CurrentUserID(r), req.fields())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, s.toContentDTO(item))
}

func (s *Server) UpdateContent(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, replaced, err := s.Content.Update(r.Context(), kind, chi.URLParam(r, "id"), CurrentUserID(r), req.fields())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	s.releaseImage(r.Context(), replaced)
	WriteJSON(w, http.StatusOK, s.toContentDTO(item))
}

func (s *Server) DeleteContent(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	image, err := s.Content.Delete(r.Context(), kind, chi.URLParam(r, "id"), CurrentUserID(r))
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	s.releaseImage(r.Context(), image)
	w.WriteHeader(http.StatusNoContent)
}

// releaseImage deletes an image no longer referenced by its entry. Failures
// are logged; the entry change already succeeded.
func (s *Server) releaseImage(ctx context.Context, assetID *string) {
	if assetID == nil || s.Media == nil {
		return
	}
	if err := s.Media.Delete(ctx, *assetID); err != nil {
		log.Printf("release image %s: %v", *assetID, err)
	}
}
