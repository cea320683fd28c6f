package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/models"
)

func item(id string, ts time.Time) models.ContentItem {
	return models.ContentItem{ID: id, Kind: models.KindBlog, Title: "t " + id, Body: "b", Timestamp: ts}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func ids(items []models.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestParseCriteria(t *testing.T) {
	c := ParseCriteria("2024", "3")
	require.NotNil(t, c.Year)
	require.NotNil(t, c.Month)
	assert.Equal(t, 2024, *c.Year)
	assert.Equal(t, 3, *c.Month)

	for _, tc := range []struct{ year, month string }{
		{"", ""},
		{"abc", "xyz"},
		{"0", "0"},
		{"-1", "13"},
		{"20.5", "1e2"},
	} {
		c := ParseCriteria(tc.year, tc.month)
		assert.True(t, c.IsEmpty(), "year=%q month=%q", tc.year, tc.month)
	}
}

func TestCriteriaParams(t *testing.T) {
	c := ParseCriteria("2023", "junk")
	assert.Equal(t, "year=2023", c.Params().Encode())
	assert.Empty(t, FilterCriteria{}.Params())
}

func TestResolveFiltersAndOrders(t *testing.T) {
	items := []models.ContentItem{
		item("a", day(2023, time.March, 1)),
		item("b", day(2024, time.March, 2)),
		item("c", day(2024, time.April, 2)),
		item("d", day(2023, time.March, 20)),
	}

	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(Resolve(items, FilterCriteria{}, nil)))
	assert.Equal(t, []string{"d", "a"}, ids(Resolve(items, ParseCriteria("2023", ""), nil)))
	assert.Equal(t, []string{"b", "d", "a"}, ids(Resolve(items, ParseCriteria("", "3"), nil)))
	assert.Equal(t, []string{"b"}, ids(Resolve(items, ParseCriteria("2024", "3"), nil)))
	assert.Empty(t, Resolve(items, ParseCriteria("2022", ""), nil))

	// input order untouched
	assert.Equal(t, "a", items[0].ID)
}

func TestResolveTiesBrokenByID(t *testing.T) {
	ts := day(2024, time.May, 5)
	items := []models.ContentItem{item("1", ts), item("3", ts), item("2", ts)}
	assert.Equal(t, []string{"3", "2", "1"}, ids(Resolve(items, FilterCriteria{}, nil)))
}

func TestResolveUsesLocation(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	// 02:00 UTC on Jan 1 is still Dec 31 in Santiago.
	items := []models.ContentItem{item("x", time.Date(2025, time.January, 1, 2, 0, 0, 0, time.UTC))}

	assert.Len(t, Resolve(items, ParseCriteria("2025", "1"), time.UTC), 1)
	assert.Empty(t, Resolve(items, ParseCriteria("2025", "1"), santiago))
	assert.Len(t, Resolve(items, ParseCriteria("2024", "12"), santiago), 1)
}

func TestResolveIsIdempotent(t *testing.T) {
	items := make([]models.ContentItem, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, item(fmt.Sprintf("%02d", i), day(2020+i%4, time.Month(1+i%12), 1+i)))
	}
	criteria := ParseCriteria("2022", "")
	once := Resolve(items, criteria, nil)
	twice := Resolve(once, criteria, nil)
	assert.Equal(t, once, twice)
}

func TestAvailableYears(t *testing.T) {
	locale := i18n.New("es")
	now := day(2026, time.October, 19)
	items := []models.ContentItem{
		item("a", day(2023, time.March, 1)),
		item("b", day(2024, time.March, 2)),
		item("c", day(2023, time.April, 2)),
	}

	years := AvailableYears(items, now, time.UTC, locale)
	require.Len(t, years, 3)
	assert.Equal(t, YearOption{Year: 2026, Display: "2026 (Año actual)", IsCurrent: true}, years[0])
	assert.Equal(t, YearOption{Year: 2024, Display: "2024"}, years[1])
	assert.Equal(t, YearOption{Year: 2023, Display: "2023"}, years[2])

	empty := AvailableYears(nil, now, nil, locale)
	assert.Equal(t, []YearOption{{Year: 2026, Display: "2026 (Año actual)", IsCurrent: true}}, empty)

	withCurrent := AvailableYears([]models.ContentItem{item("z", day(2026, time.January, 3))}, now, time.UTC, locale)
	assert.Len(t, withCurrent, 1)
}
