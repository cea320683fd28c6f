package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"radiohits-backend-go/internal/models"
)

// OnAirState is what the hub pushes to websocket listeners.
type OnAirState struct {
	Day  models.Weekday       `json:"day"`
	Slot *models.ScheduleSlot `json:"slot"`
	At   time.Time            `json:"at"`
}

func (s OnAirState) slotID() string {
	if s.Slot == nil {
		return ""
	}
	return s.Slot.ID + "|" + s.Slot.StartTime + "|" + s.Slot.EndTime + "|" + s.Slot.ProgramName
}

// DaySchedule lists the slots of one day ordered by start time.
type DaySchedule interface {
	List(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error)
}

// CurrentOnAir resolves the program airing at now, evaluated in loc.
func CurrentOnAir(ctx context.Context, schedule DaySchedule, now time.Time, loc *time.Location) (OnAirState, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	state := OnAirState{Day: models.WeekdayOf(local.Weekday()), At: local}
	slots, err := schedule.List(ctx, state.Day)
	if err != nil {
		return state, err
	}
	if slot, ok := SlotAt(slots, local.Hour()*60+local.Minute()); ok {
		state.Slot = &slot
	}
	return state, nil
}

// OnAirWriteWait bounds a single write to a listener.
const OnAirWriteWait = 10 * time.Second

// onAirClientBuffer is how many states may queue for a slow listener before
// it is dropped.
const onAirClientBuffer = 4

// Conn is the subset of *websocket.Conn the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type onAirClient struct {
	conn Conn
	send chan OnAirState
}

// OnAirHub fans the current on-air program out to websocket listeners. It
// broadcasts only when the slot changes. Each listener has its own writer
// goroutine, so a stalled client never holds the hub lock.
type OnAirHub struct {
	mu      sync.Mutex
	clients map[Conn]*onAirClient
	current *OnAirState
	ch      chan OnAirState
}

func NewOnAirHub() *OnAirHub {
	return &OnAirHub{
		clients: map[Conn]*onAirClient{},
		ch:      make(chan OnAirState, 16),
	}
}

// Run delivers published states until ctx is done.
func (h *OnAirHub) Run(ctx context.Context) {
	for {
		select {
		case state := <-h.ch:
			h.broadcast(state)
		case <-ctx.Done():
			h.mu.Lock()
			conns := make([]Conn, 0, len(h.clients))
			for conn, c := range h.clients {
				close(c.send)
				delete(h.clients, conn)
				conns = append(conns, conn)
			}
			h.mu.Unlock()
			for _, conn := range conns {
				_ = conn.Close()
			}
			return
		}
	}
}

// broadcast queues state for every listener. Listeners whose queue is full
// are dropped and closed, which also unblocks a stuck write.
func (h *OnAirHub) broadcast(state OnAirState) {
	var slow []Conn
	h.mu.Lock()
	for conn, c := range h.clients {
		select {
		case c.send <- state:
		default:
			close(c.send)
			delete(h.clients, conn)
			slow = append(slow, conn)
		}
	}
	h.mu.Unlock()
	for _, conn := range slow {
		_ = conn.Close()
	}
}

// Publish records state and queues a broadcast when the slot differs from
// the last published one. It reports whether a broadcast was queued.
func (h *OnAirHub) Publish(state OnAirState) bool {
	h.mu.Lock()
	changed := h.current == nil || h.current.Day != state.Day || h.current.slotID() != state.slotID()
	h.current = &state
	h.mu.Unlock()
	if !changed {
		return false
	}
	select {
	case h.ch <- state:
	default:
	}
	return true
}

// Current is the last published state, if any.
func (h *OnAirHub) Current() (OnAirState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return OnAirState{}, false
	}
	return *h.current, true
}

// Add registers conn and queues the current state for it.
func (h *OnAirHub) Add(conn Conn) {
	c := &onAirClient{conn: conn, send: make(chan OnAirState, onAirClientBuffer)}
	h.mu.Lock()
	if old, ok := h.clients[conn]; ok {
		close(old.send)
	}
	h.clients[conn] = c
	if h.current != nil {
		c.send <- *h.current
	}
	h.mu.Unlock()
	go h.writeLoop(c)
}

func (h *OnAirHub) writeLoop(c *onAirClient) {
	for state := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(OnAirWriteWait))
		if err := c.conn.WriteJSON(state); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *OnAirHub) drop(c *onAirClient) {
	h.mu.Lock()
	if h.clients[c.conn] == c {
		delete(h.clients, c.conn)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *OnAirHub) Remove(conn Conn) {
	h.mu.Lock()
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *OnAirHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Watch recomputes the on-air slot every interval and publishes changes.
func (h *OnAirHub) Watch(ctx context.Context, schedule DaySchedule, loc *time.Location, interval time.Duration) {
	tick := func() {
		state, err := CurrentOnAir(ctx, schedule, time.Now(), loc)
		if err != nil {
			log.Printf("on-air: %v", err)
			return
		}
		h.Publish(state)
	}
	tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			return
		}
	}
}

var _ Conn = (*websocket.Conn)(nil)
