package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"radiohits-backend-go/internal/models"
)

const (
	MaxProgramNameLength = 100

	msgSlotNotFound = "Programa no encontrado"
)

// ParseClock reads a 24h "HH:MM" value and returns minutes after midnight.
func ParseClock(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	parsed, err := time.Parse("15:04", value)
	if err != nil || len(value) != 5 {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}

// NormalizeScheduleFields validates a slot: both times HH:MM, start before end
// and a program name of at most MaxProgramNameLength characters.
func NormalizeScheduleFields(in models.ScheduleFields) (models.ScheduleFields, error) {
	out := models.ScheduleFields{
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
		ProgramName: strings.TrimSpace(in.ProgramName),
	}
	start, ok := ParseClock(out.StartTime)
	if !ok {
		return out, ErrBadRequest("Hora de inicio inválida, use HH:MM.")
	}
	end, ok := ParseClock(out.EndTime)
	if !ok {
		return out, ErrBadRequest("Hora de término inválida, use HH:MM.")
	}
	if start >= end {
		return out, ErrBadRequest("La hora de inicio debe ser anterior a la hora de término.")
	}
	if out.ProgramName == "" {
		return out, ErrBadRequest("El nombre del programa es obligatorio.")
	}
	if utf8.RuneCountInString(out.ProgramName) > MaxProgramNameLength {
		return out, ErrBadRequest(fmt.Sprintf("El nombre del programa no puede superar %d caracteres.", MaxProgramNameLength))
	}
	return out, nil
}

// FindOverlap returns the first slot in existing, other than excludeID, whose
// time range intersects candidate. Ranges are half-open, so back-to-back
// programs do not overlap.
func FindOverlap(existing []models.ScheduleSlot, candidate models.ScheduleFields, excludeID string) (models.ScheduleSlot, bool) {
	start, _ := ParseClock(candidate.StartTime)
	end, _ := ParseClock(candidate.EndTime)
	for _, slot := range existing {
		if slot.ID == excludeID {
			continue
		}
		otherStart, ok1 := ParseClock(slot.StartTime)
		otherEnd, ok2 := ParseClock(slot.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if start < otherEnd && otherStart < end {
			return slot, true
		}
	}
	return models.ScheduleSlot{}, false
}

// SlotAt returns the slot airing at minute-of-day clock, if any. slots must
// belong to a single day.
func SlotAt(slots []models.ScheduleSlot, clock int) (models.ScheduleSlot, bool) {
	for _, slot := range slots {
		start, ok1 := ParseClock(slot.StartTime)
		end, ok2 := ParseClock(slot.EndTime)
		if ok1 && ok2 && start <= clock && clock < end {
			return slot, true
		}
	}
	return models.ScheduleSlot{}, false
}

// ScheduleStore is the single weekday-parameterized store for the weekly
// program grid.
type ScheduleStore struct {
	DB *sqlx.DB
}

const scheduleColumns = `id, day, start_time, end_time, program_name, created_at, updated_at`

// List returns the slots of day ordered by start time.
func (s ScheduleStore) List(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error) {
	return s.list(ctx, s.DB, day)
}

func (s ScheduleStore) list(ctx context.Context, q sqlx.QueryerContext, day models.Weekday) ([]models.ScheduleSlot, error) {
	slots := []models.ScheduleSlot{}
	err := sqlx.SelectContext(ctx, q, &slots, `
SELECT `+scheduleColumns+`
FROM schedule_slots
WHERE day = $1
ORDER BY start_time, end_time
`, day)
	if err != nil {
		return nil, fmt.Errorf("select %s slots: %w", day, err)
	}
	return slots, nil
}

// Week returns all seven days, each ordered by start time. Days without
// programs map to an empty slice.
func (s ScheduleStore) Week(ctx context.Context) (map[models.Weekday][]models.ScheduleSlot, error) {
	rows := []models.ScheduleSlot{}
	err := s.DB.SelectContext(ctx, &rows, `
SELECT `+scheduleColumns+`
FROM schedule_slots
ORDER BY start_time, end_time
`)
	if err != nil {
		return nil, fmt.Errorf("select schedule: %w", err)
	}
	week := make(map[models.Weekday][]models.ScheduleSlot, 7)
	for _, day := range models.Weekdays() {
		week[day] = []models.ScheduleSlot{}
	}
	for _, slot := range rows {
		week[slot.Day] = append(week[slot.Day], slot)
	}
	return week, nil
}

func (s ScheduleStore) Get(ctx context.Context, day models.Weekday, id string) (models.ScheduleSlot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.ScheduleSlot{}, ErrNotFound(msgSlotNotFound)
	}
	var slot models.ScheduleSlot
	err := s.DB.GetContext(ctx, &slot, `SELECT `+scheduleColumns+` FROM schedule_slots WHERE day = $1 AND id = $2`, day, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ScheduleSlot{}, ErrNotFound(msgSlotNotFound)
	}
	if err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("get %s slot: %w", day, err)
	}
	return slot, nil
}

// lockDay serializes writers of one day for the rest of the transaction.
func lockDay(ctx context.Context, tx *sqlx.Tx, day models.Weekday) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('schedule:' || $1))`, string(day))
	return WrapError(err, "lock schedule day")
}

func (s ScheduleStore) checkOverlap(ctx context.Context, tx *sqlx.Tx, day models.Weekday, fields models.ScheduleFields, excludeID string) error {
	existing, err := s.list(ctx, tx, day)
	if err != nil {
		return err
	}
	if other, found := FindOverlap(existing, fields, excludeID); found {
		return ErrConflict(fmt.Sprintf("El horario se superpone con \"%s\" (%s-%s).", other.ProgramName, other.StartTime, other.EndTime))
	}
	return nil
}

func (s ScheduleStore) Create(ctx context.Context, day models.Weekday, in models.ScheduleFields) (models.ScheduleSlot, error) {
	fields, err := NormalizeScheduleFields(in)
	if err != nil {
		return models.ScheduleSlot{}, err
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockDay(ctx, tx, day); err != nil {
		return models.ScheduleSlot{}, err
	}
	if err := s.checkOverlap(ctx, tx, day, fields, ""); err != nil {
		return models.ScheduleSlot{}, err
	}
	now := time.Now().UTC()
	slot := models.ScheduleSlot{
		ID:          uuid.NewString(),
		Day:         day,
		StartTime:   fields.StartTime,
		EndTime:     fields.EndTime,
		ProgramName: fields.ProgramName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO schedule_slots (id, day, start_time, end_time, program_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, slot.ID, slot.Day, slot.StartTime, slot.EndTime, slot.ProgramName, now)
	if err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("insert %s slot: %w", day, err)
	}
	if err := tx.Commit(); err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("commit: %w", err)
	}
	return slot, nil
}

func (s ScheduleStore) Update(ctx context.Context, day models.Weekday, id string, in models.ScheduleFields) (models.ScheduleSlot, error) {
	fields, err := NormalizeScheduleFields(in)
	if err != nil {
		return models.ScheduleSlot{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ScheduleSlot{}, ErrNotFound(msgSlotNotFound)
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockDay(ctx, tx, day); err != nil {
		return models.ScheduleSlot{}, err
	}
	if err := s.checkOverlap(ctx, tx, day, fields, id); err != nil {
		return models.ScheduleSlot{}, err
	}
	res, err := tx.ExecContext(ctx, `
UPDATE schedule_slots
SET start_time = $1, end_time = $2, program_name = $3, updated_at = $4
WHERE day = $5 AND id = $6
`, fields.StartTime, fields.EndTime, fields.ProgramName, time.Now().UTC(), day, id)
	if err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("update %s slot: %w", day, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ScheduleSlot{}, ErrNotFound(msgSlotNotFound)
	}
	if err := tx.Commit(); err != nil {
		return models.ScheduleSlot{}, fmt.Errorf("commit: %w", err)
	}
	return s.Get(ctx, day, id)
}

func (s ScheduleStore) Delete(ctx context.Context, day models.Weekday, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound(msgSlotNotFound)
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM schedule_slots WHERE day = $1 AND id = $2`, day, id)
	if err != nil {
		return fmt.Errorf("delete %s slot: %w", day, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound(msgSlotNotFound)
	}
	return nil
}
