package httpapi

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"radiohits-backend-go/internal/services"
)

type UploadResponse struct {
	AssetID string `json:"assetId"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// UploadImage stores the multipart "image" field in the bucket of {kind}.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	bucket, ok := services.BucketForKind(kind)
	if !ok {
		WriteError(w, http.StatusNotFound, "Sección no encontrada.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "La imagen supera el tamaño máximo de 10MB.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Falta el archivo de imagen.")
		return
	}
	defer file.Close()

	asset, err := s.Media.SaveImage(r.Context(), bucket, CurrentUserID(r), header.Filename, file)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, UploadResponse{
		AssetID: asset.ID,
		URL:     services.BuildAssetURL(asset.ID),
		Width:   asset.Width,
		Height:  asset.Height,
	})
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, body, err := s.Media.Open(r.Context(), chi.URLParam(r, "assetId"))
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if asset.Sha256 != nil {
		w.Header().Set("ETag", `"`+*asset.Sha256+`"`)
	}
	if asset.Filename != nil {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": *asset.Filename}))
	}
	if seeker, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", asset.CreatedAt, seeker)
		return
	}
	w.Header().Set("Last-Modified", asset.CreatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

