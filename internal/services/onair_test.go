package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/models"
)

type fakeDaySchedule struct {
	slots map[models.Weekday][]models.ScheduleSlot
	err   error
}

func (f fakeDaySchedule) List(_ context.Context, day models.Weekday) ([]models.ScheduleSlot, error) {
	return f.slots[day], f.err
}

type recordingConn struct {
	mu        sync.Mutex
	messages  []OnAirState
	deadlines int
	fail      bool
	closed    bool
}

func (c *recordingConn) SetWriteDeadline(time.Time) error {
	c.mu.Lock()
	c.deadlines++
	c.mu.Unlock()
	return nil
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recordingConn) first() OnAirState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages[0]
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, v.(OnAirState))
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestCurrentOnAir(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	schedule := fakeDaySchedule{slots: map[models.Weekday][]models.ScheduleSlot{
		models.Monday: {slot("morning", "06:00", "10:00")},
	}}
	// 2026-10-19 is a Monday; 12:00 UTC is 09:00 in Santiago (UTC-3).
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

	state, err := CurrentOnAir(context.Background(), schedule, now, santiago)
	require.NoError(t, err)
	assert.Equal(t, models.Monday, state.Day)
	require.NotNil(t, state.Slot)
	assert.Equal(t, "morning", state.Slot.ID)

	state, err = CurrentOnAir(context.Background(), schedule, now.Add(2*time.Hour), santiago)
	require.NoError(t, err)
	assert.Nil(t, state.Slot)

	_, err = CurrentOnAir(context.Background(), fakeDaySchedule{err: errors.New("db down")}, now, santiago)
	assert.Error(t, err)
}

func TestOnAirHubPublishesOnlyChanges(t *testing.T) {
	hub := NewOnAirHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := &recordingConn{}
	hub.Add(conn)
	assert.Equal(t, 0, conn.count(), "nothing to send before the first publish")

	morning := slot("m", "06:00", "10:00")
	at := time.Date(2026, time.October, 19, 7, 0, 0, 0, time.UTC)
	assert.True(t, hub.Publish(OnAirState{Day: models.Monday, Slot: &morning, At: at}))
	assert.False(t, hub.Publish(OnAirState{Day: models.Monday, Slot: &morning, At: at.Add(time.Minute)}))
	assert.True(t, hub.Publish(OnAirState{Day: models.Monday, At: at.Add(4 * time.Hour)}))

	assert.Eventually(t, func() bool { return conn.count() == 2 }, time.Second, 5*time.Millisecond)

	late := &recordingConn{}
	hub.Add(late)
	require.Eventually(t, func() bool { return late.count() == 1 }, time.Second, 5*time.Millisecond, "new listeners get the current state")
	assert.Nil(t, late.first().Slot)
	late.mu.Lock()
	assert.Equal(t, 1, late.deadlines, "every write carries a deadline")
	late.mu.Unlock()
}

func TestOnAirHubDropsBrokenConnections(t *testing.T) {
	hub := NewOnAirHub()
	morning := slot("m", "06:00", "10:00")
	hub.Publish(OnAirState{Day: models.Monday, Slot: &morning})

	broken := &recordingConn{fail: true}
	hub.Add(broken)
	assert.Eventually(t, broken.isClosed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)

	ok := &recordingConn{}
	hub.Add(ok)
	assert.Equal(t, 1, hub.Len())
	hub.Remove(ok)
	assert.Equal(t, 0, hub.Len())
}

// stalledConn blocks every write until it is closed, like a client that
// stopped reading.
type stalledConn struct {
	once    sync.Once
	release chan struct{}
	writing chan struct{}
}

func newStalledConn() *stalledConn {
	return &stalledConn{release: make(chan struct{}), writing: make(chan struct{}, 16)}
}

func (c *stalledConn) WriteJSON(interface{}) error {
	c.writing <- struct{}{}
	<-c.release
	return errors.New("use of closed connection")
}

func (c *stalledConn) SetWriteDeadline(time.Time) error { return nil }

func (c *stalledConn) Close() error {
	c.once.Do(func() { close(c.release) })
	return nil
}

func (c *stalledConn) isClosed() bool {
	select {
	case <-c.release:
		return true
	default:
		return false
	}
}

func TestOnAirHubStalledListenerDoesNotBlock(t *testing.T) {
	hub := NewOnAirHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	at := time.Date(2026, time.October, 19, 7, 0, 0, 0, time.UTC)
	hub.Publish(OnAirState{Day: models.Monday, At: at})

	stalled := newStalledConn()
	hub.Add(stalled)
	select {
	case <-stalled.writing:
	case <-time.After(time.Second):
		t.Fatal("stalled listener never received the current state")
	}

	healthy := &recordingConn{}
	hub.Add(healthy)

	// Enough distinct states to overflow the stalled listener's queue.
	for i := 0; i < onAirClientBuffer+2; i++ {
		s := slot(fmt.Sprintf("s%d", i), "06:00", "10:00")
		hub.Publish(OnAirState{Day: models.Monday, Slot: &s, At: at})
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		_, _ = hub.Current()
		hub.Len()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub locked behind a stalled write")
	}

	assert.Eventually(t, stalled.isClosed, time.Second, 5*time.Millisecond, "slow listener is dropped")
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return healthy.count() == onAirClientBuffer+3 }, time.Second, 5*time.Millisecond)
}
