package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"radiohits-backend-go/internal/i18n"
)

// Indicators is the home-page economic snapshot. Values are nil when the
// upstream API could not be reached.
type Indicators struct {
	Dolar        *float64 `json:"dolar"`
	Euro         *float64 `json:"euro"`
	UF           *float64 `json:"uf"`
	UTM          *float64 `json:"utm"`
	UTMMonth     *string  `json:"utmMonth"`
	ConsultDate  string   `json:"consultDate"`
	Available    bool     `json:"available"`
	SourceUpdate *string  `json:"sourceUpdatedAt,omitempty"`
}

type indicatorValue struct {
	Fecha string   `json:"fecha"`
	Valor *float64 `json:"valor"`
}

type indicatorPayload struct {
	Fecha string         `json:"fecha"`
	Dolar indicatorValue `json:"dolar"`
	Euro  indicatorValue `json:"euro"`
	UF    indicatorValue `json:"uf"`
	UTM   indicatorValue `json:"utm"`
}

// IndicatorFailureTTL is how long a failed fetch is remembered, so an
// upstream outage costs one slow request instead of one per page view.
const IndicatorFailureTTL = 15 * time.Second

type cachedIndicators struct {
	value     Indicators
	fetchedAt time.Time
	failed    bool
}

// IndicatorClient fetches dólar, euro, UF and UTM values from a
// mindicador.cl compatible endpoint. Successful answers are cached for TTL,
// failures for FailureTTL.
type IndicatorClient struct {
	URL        string
	HTTP       *retryablehttp.Client
	TTL        time.Duration
	FailureTTL time.Duration
	Locale     i18n.Locale
	Location   *time.Location
	Now        func() time.Time

	mu    sync.RWMutex
	cache *cachedIndicators
}

// NewIndicatorClient builds a client whose total time per attempt is bounded
// by timeout, retrying transient failures twice.
func NewIndicatorClient(url string, timeout, ttl time.Duration, locale i18n.Locale, loc *time.Location) *IndicatorClient {
	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = &http.Client{Timeout: timeout}
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = time.Second
	httpClient.Logger = nil
	if loc == nil {
		loc = time.UTC
	}
	return &IndicatorClient{
		URL:        url,
		HTTP:       httpClient,
		TTL:        ttl,
		FailureTTL: IndicatorFailureTTL,
		Locale:     locale,
		Location:   loc,
		Now:        time.Now,
	}
}

func (c *IndicatorClient) now() time.Time {
	if c.Now != nil {
		return c.Now().In(c.Location)
	}
	return time.Now().In(c.Location)
}

// Get never fails: on upstream errors it logs and returns a snapshot with nil
// values and today's consult date.
func (c *IndicatorClient) Get(ctx context.Context) Indicators {
	now := c.now()
	if cached, ok := c.cached(now); ok {
		cached.ConsultDate = c.Locale.LongDate(now)
		return cached
	}
	value, err := c.fetch(ctx, now)
	if err != nil {
		log.Printf("indicators: %v", err)
		value = Indicators{ConsultDate: c.Locale.LongDate(now)}
	}
	c.mu.Lock()
	c.cache = &cachedIndicators{value: value, fetchedAt: now, failed: err != nil}
	c.mu.Unlock()
	return value
}

func (c *IndicatorClient) cached(now time.Time) (Indicators, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return Indicators{}, false
	}
	ttl := c.TTL
	if c.cache.failed {
		ttl = c.FailureTTL
	}
	if ttl <= 0 || now.Sub(c.cache.fetchedAt) >= ttl {
		return Indicators{}, false
	}
	return c.cache.value, true
}

func (c *IndicatorClient) fetch(ctx context.Context, now time.Time) (Indicators, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Indicators{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Indicators{}, fmt.Errorf("request %s: %w", c.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Indicators{}, fmt.Errorf("request %s: status %d", c.URL, resp.StatusCode)
	}
	var payload indicatorPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Indicators{}, fmt.Errorf("decode indicators: %w", err)
	}
	return c.build(payload, now), nil
}

func (c *IndicatorClient) build(p indicatorPayload, now time.Time) Indicators {
	out := Indicators{
		Dolar:       p.Dolar.Valor,
		Euro:        p.Euro.Valor,
		UF:          p.UF.Valor,
		UTM:         p.UTM.Valor,
		ConsultDate: c.Locale.LongDate(now),
		Available:   true,
	}
	if month := c.utmMonth(p.UTM.Fecha); month != "" {
		out.UTMMonth = &month
	}
	if p.Fecha != "" {
		fecha := p.Fecha
		out.SourceUpdate = &fecha
	}
	return out
}

// utmMonth reads the month from an ISO date ("2024-06-01T04:00:00.000Z").
func (c *IndicatorClient) utmMonth(fecha string) string {
	if len(fecha) < 7 {
		return ""
	}
	month, err := strconv.Atoi(fecha[5:7])
	if err != nil {
		return ""
	}
	return c.Locale.MonthName(time.Month(month))
}
