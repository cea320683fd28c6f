package httpapi

import (
	"context"
	"net/http"
	"time"

	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

type HomeResponse struct {
	SiteName   string               `json:"siteName"`
	Carousel   []ContentItemDTO     `json:"carousel"`
	Indicators services.Indicators  `json:"indicators"`
	OnAir      *services.OnAirState `json:"onAir,omitempty"`
}

// indicatorBudget bounds how long a page waits for the indicators API,
// retries included.
func (s *Server) indicatorBudget() time.Duration {
	timeout := time.Duration(s.Config.IndicatorsTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return 2 * timeout
}

func (s *Server) indicators(ctx context.Context) services.Indicators {
	ctx, cancel := context.WithTimeout(ctx, s.indicatorBudget())
	defer cancel()
	return s.Indicators.Get(ctx)
}

// Home bundles the three newest index entries with the indicators. The
// indicators are fetched concurrently and never fail the page.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	indicatorsCh := make(chan services.Indicators, 1)
	go func() {
		indicatorsCh <- s.indicators(r.Context())
	}()

	items, err := s.Lister.Recent(r.Context(), models.KindIndex, carouselSize)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	resp := HomeResponse{
		SiteName:   s.Config.SiteName,
		Carousel:   s.toContentDTOs(items),
		Indicators: <-indicatorsCh,
	}
	if s.OnAir != nil {
		if state, ok := s.OnAir.Current(); ok {
			resp.OnAir = &state
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) GetIndicators(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.indicators(r.Context()))
}
