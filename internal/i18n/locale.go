// Package i18n holds the display strings the API returns for dates: month
// names, weekday names and the "current year" label.
package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

type table struct {
	months      [12]string
	days        [7]string
	currentYear string
	longDate    func(t time.Time, month string) string
}

var tables = map[language.Tag]table{
	language.Spanish: {
		months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
			"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		days:        [7]string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado", "domingo"},
		currentYear: "Año actual",
		longDate: func(t time.Time, month string) string {
			return fmt.Sprintf("%02d de %s de %d", t.Day(), month, t.Year())
		},
	},
	language.English: {
		months: [12]string{"january", "february", "march", "april", "may", "june",
			"july", "august", "september", "october", "november", "december"},
		days:        [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
		currentYear: "Current year",
		longDate: func(t time.Time, month string) string {
			return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year())
		},
	},
}

// Locale resolves display names for one of the supported languages.
// Unknown or malformed tags fall back to Spanish.
type Locale struct {
	tag language.Tag
	t   table
}

type MonthOption struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

func New(raw string) Locale {
	tag, err := language.Parse(raw)
	if err != nil {
		tag = language.Und
	}
	_, idx, _ := matcher.Match(tag)
	base := supported[idx]
	return Locale{tag: base, t: tables[base]}
}

func (l Locale) Tag() language.Tag {
	return l.tag
}

func (l Locale) title(s string) string {
	// cases.Caser keeps state, so it is not shared between calls.
	return cases.Title(l.tag).String(s)
}

// MonthName returns the capitalized month name ("Marzo").
func (l Locale) MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return l.title(l.t.months[m-1])
}

// MonthNameLower returns the month as it appears inside a sentence ("marzo").
func (l Locale) MonthNameLower(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return l.t.months[m-1]
}

// Months lists the twelve calendar months in order.
func (l Locale) Months() []MonthOption {
	items := make([]MonthOption, 0, 12)
	for i := range l.t.months {
		items = append(items, MonthOption{Number: i + 1, Name: l.MonthName(time.Month(i + 1))})
	}
	return items
}

// DayName returns the capitalized name of a Monday-based day index.
func (l Locale) DayName(index int) string {
	if index < 0 || index > 6 {
		return ""
	}
	return l.title(l.t.days[index])
}

// YearLabel renders a year for filter controls, marking the current one.
func (l Locale) YearLabel(year, current int) string {
	if year == current {
		return fmt.Sprintf("%d (%s)", year, l.t.currentYear)
	}
	return fmt.Sprintf("%d", year)
}

// LongDate renders "19 de octubre de 2026" / "October 19, 2026".
func (l Locale) LongDate(t time.Time) string {
	month := l.t.months[t.Month()-1]
	if l.tag == language.English {
		month = l.title(month)
	}
	return l.t.longDate(t, month)
}
