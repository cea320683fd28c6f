package httpapi

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"radiohits-backend-go/internal/models"
)

const (
	feedSize        = 20
	feedSummaryRune = 280
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func summarize(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= feedSummaryRune {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:feedSummaryRune])) + "…"
}

// Feed renders the newest blog entries as RSS 2.0.
func (s *Server) Feed(w http.ResponseWriter, r *http.Request) {
	items, err := s.Lister.Recent(r.Context(), models.KindBlog, feedSize)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	base := strings.TrimRight(s.Config.SiteURL, "/")
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       s.Config.SiteName,
			Link:        base,
			Description: s.Config.SiteName + " blog",
			Language:    s.Locale.Tag().String(),
			Items:       make([]rssItem, 0, len(items)),
		},
	}
	for _, item := range items {
		link := base + "/blog/" + item.ID
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       item.Title,
			Link:        link,
			Description: summarize(item.Body),
			Author:      item.AuthorName,
			PubDate:     item.Timestamp.In(s.location()).Format(time.RFC1123Z),
			GUID:        link,
		})
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(feed)
}
