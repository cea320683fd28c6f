package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/models"
)

func TestParseClock(t *testing.T) {
	cases := map[string]struct {
		minutes int
		ok      bool
	}{
		"00:00": {0, true},
		"07:30": {450, true},
		"23:59": {1439, true},
		" 9:30": {0, false},
		"9:30":  {0, false},
		"24:00": {0, false},
		"12:60": {0, false},
		"noon":  {0, false},
		"":      {0, false},
	}
	for raw, want := range cases {
		got, ok := ParseClock(raw)
		assert.Equal(t, want.ok, ok, "raw=%q", raw)
		if want.ok {
			assert.Equal(t, want.minutes, got, "raw=%q", raw)
		}
	}
}

func TestNormalizeScheduleFields(t *testing.T) {
	fields, err := NormalizeScheduleFields(models.ScheduleFields{StartTime: " 08:00", EndTime: "10:00 ", ProgramName: "  Buenos días  "})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleFields{StartTime: "08:00", EndTime: "10:00", ProgramName: "Buenos días"}, fields)

	bad := []models.ScheduleFields{
		{StartTime: "8", EndTime: "10:00", ProgramName: "x"},
		{StartTime: "08:00", EndTime: "", ProgramName: "x"},
		{StartTime: "10:00", EndTime: "10:00", ProgramName: "x"},
		{StartTime: "11:00", EndTime: "10:00", ProgramName: "x"},
		{StartTime: "08:00", EndTime: "10:00", ProgramName: "   "},
	}
	for _, in := range bad {
		_, err := NormalizeScheduleFields(in)
		status, ok := StatusOf(err)
		assert.True(t, ok, "%+v", in)
		assert.Equal(t, http.StatusBadRequest, status, "%+v", in)
	}
}

func slot(id, start, end string) models.ScheduleSlot {
	return models.ScheduleSlot{ID: id, Day: models.Monday, StartTime: start, EndTime: end, ProgramName: "p" + id}
}

func TestFindOverlap(t *testing.T) {
	existing := []models.ScheduleSlot{slot("a", "06:00", "08:00"), slot("b", "10:00", "12:00")}

	_, found := FindOverlap(existing, models.ScheduleFields{StartTime: "08:00", EndTime: "10:00"}, "")
	assert.False(t, found, "back to back is allowed")

	other, found := FindOverlap(existing, models.ScheduleFields{StartTime: "07:59", EndTime: "09:00"}, "")
	assert.True(t, found)
	assert.Equal(t, "a", other.ID)

	other, found = FindOverlap(existing, models.ScheduleFields{StartTime: "09:00", EndTime: "13:00"}, "")
	assert.True(t, found)
	assert.Equal(t, "b", other.ID)

	_, found = FindOverlap(existing, models.ScheduleFields{StartTime: "10:30", EndTime: "11:30"}, "b")
	assert.False(t, found, "a slot does not overlap itself")
}

func TestSlotAt(t *testing.T) {
	slots := []models.ScheduleSlot{slot("a", "06:00", "08:00"), slot("b", "08:00", "09:00")}

	got, ok := SlotAt(slots, 6*60)
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	got, ok = SlotAt(slots, 8*60)
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	_, ok = SlotAt(slots, 9*60)
	assert.False(t, ok)
}
