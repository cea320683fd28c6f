package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"radiohits-backend-go/internal/services"
)

const (
	msgInvalidPayload = "Solicitud inválida."
	msgInternal       = "Error interno del servidor."
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// mapServiceError answers with the ServiceError carried by err, or logs it
// and answers 500.
func mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serr services.ServiceError
	if errors.As(err, &serr) {
		WriteError(w, serr.Status, serr.Message)
		return
	}
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	WriteError(w, http.StatusInternalServerError, msgInternal)
}

// decodeJSON reads a JSON body of at most 1MB into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, msgInvalidPayload)
		return false
	}
	return true
}
