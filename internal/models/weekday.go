package models

import (
	"strings"
	"time"
)

// Weekday keys used in URLs and the schedule_slots.day column.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// DayAll selects every weekday in schedule listings.
const DayAll = "all"

var weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays returns the seven days, Monday first.
func Weekdays() []Weekday {
	return append([]Weekday(nil), weekdays...)
}

var spanishWeekdays = map[string]Weekday{
	"lunes":     Monday,
	"martes":    Tuesday,
	"miercoles": Wednesday,
	"miércoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
	"sabado":    Saturday,
	"sábado":    Saturday,
	"domingo":   Sunday,
}

// ParseWeekday accepts English keys and the Spanish day names.
func ParseWeekday(raw string) (Weekday, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, day := range weekdays {
		if string(day) == value {
			return day, true
		}
	}
	if day, ok := spanishWeekdays[value]; ok {
		return day, true
	}
	return "", false
}

// WeekdayOf maps a time.Weekday onto the schedule key.
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return weekdays[int(d)-1]
}

// Index is the Monday-based position of the day (0..6).
func (d Weekday) Index() int {
	for i, day := range weekdays {
		if day == d {
			return i
		}
	}
	return -1
}
