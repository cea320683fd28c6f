package httpapi

import (
	"net/http"

	"radiohits-backend-go/internal/services"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := services.CheckHealth(r.Context(), s.DB, s.MediaRoot)
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, report)
}
