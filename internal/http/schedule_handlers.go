package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

type SlotRequest struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	ProgramName string `json:"programName"`
}

func (req SlotRequest) fields() models.ScheduleFields {
	return models.ScheduleFields{StartTime: req.StartTime, EndTime: req.EndTime, ProgramName: req.ProgramName}
}

type SlotDTO struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	ProgramName string `json:"programName"`
}

type DayScheduleDTO struct {
	Day   string    `json:"day"`
	Name  string    `json:"name"`
	Slots []SlotDTO `json:"slots"`
}

type ScheduleResponse struct {
	Days []DayScheduleDTO `json:"days"`
}

func toSlotDTO(slot models.ScheduleSlot) SlotDTO {
	return SlotDTO{
		ID:          slot.ID,
		Day:         string(slot.Day),
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		ProgramName: slot.ProgramName,
	}
}

func (s *Server) toDaySchedule(day models.Weekday, slots []models.ScheduleSlot) DayScheduleDTO {
	dto := DayScheduleDTO{Day: string(day), Name: s.Locale.DayName(day.Index()), Slots: make([]SlotDTO, 0, len(slots))}
	for _, slot := range slots {
		dto.Slots = append(dto.Slots, toSlotDTO(slot))
	}
	return dto
}

// PublicSchedule lists one day when ?day= names a weekday, otherwise the
// whole week, Monday first.
func (s *Server) PublicSchedule(w http.ResponseWriter, r *http.Request) {
	if day, ok := models.ParseWeekday(r.URL.Query().Get("day")); ok {
		slots, err := s.Schedule.List(r.Context(), day)
		if err != nil {
			mapServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, ScheduleResponse{Days: []DayScheduleDTO{s.toDaySchedule(day, slots)}})
		return
	}
	week, err := s.Schedule.Week(r.Context())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	resp := ScheduleResponse{Days: make([]DayScheduleDTO, 0, 7)}
	for _, day := range models.Weekdays() {
		resp.Days = append(resp.Days, s.toDaySchedule(day, week[day]))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func dayParam(w http.ResponseWriter, r *http.Request) (models.Weekday, bool) {
	day, ok := models.ParseWeekday(chi.URLParam(r, "day"))
	if !ok {
		WriteError(w, http.StatusNotFound, "Día no encontrado.")
		return "", false
	}
	return day, true
}

func (s *Server) CreateSlot(w http.ResponseWriter, r *http.Request) {
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	var req SlotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	slot, err := s.Schedule.Create(r.Context(), day, req.fields())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	s.refreshOnAir(r.Context())
	WriteJSON(w, http.StatusCreated, toSlotDTO(slot))
}

func (s *Server) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	var req SlotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	slot, err := s.Schedule.Update(r.Context(), day, chi.URLParam(r, "id"), req.fields())
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	s.refreshOnAir(r.Context())
	WriteJSON(w, http.StatusOK, toSlotDTO(slot))
}

func (s *Server) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	day, ok := dayParam(w, r)
	if !ok {
		return
	}
	if err := s.Schedule.Delete(r.Context(), day, chi.URLParam(r, "id")); err != nil {
		mapServiceError(w, r, err)
		return
	}
	s.refreshOnAir(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// refreshOnAir republishes the current program after a schedule change so
// listeners do not wait for the next tick.
func (s *Server) refreshOnAir(ctx context.Context) {
	if s.OnAir == nil {
		return
	}
	state, err := services.CurrentOnAir(ctx, s.Schedule, time.Now(), s.location())
	if err != nil {
		log.Printf("on-air refresh: %v", err)
		return
	}
	s.OnAir.Publish(state)
}
