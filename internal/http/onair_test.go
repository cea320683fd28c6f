package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

func TestOnAirSocket(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.server.OnAir.Run(ctx)

	at := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	env.server.OnAir.Publish(services.OnAirState{Day: models.Monday, At: at})

	srv := httptest.NewServer(env.router(t))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/on-air"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first services.OnAirState
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.Monday, first.Day)
	assert.Nil(t, first.Slot)

	slot := models.ScheduleSlot{ID: "s1", Day: models.Monday, StartTime: "09:00", EndTime: "11:00", ProgramName: "Mañanas"}
	require.True(t, env.server.OnAir.Publish(services.OnAirState{Day: models.Monday, Slot: &slot, At: at}))

	var next services.OnAirState
	require.NoError(t, conn.ReadJSON(&next))
	require.NotNil(t, next.Slot)
	assert.Equal(t, "Mañanas", next.Slot.ProgramName)
}

func TestOnAirSocketRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	env.server.Config.CorsOrigins = []string{"https://radiohits.cl"}
	srv := httptest.NewServer(env.router(t))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/on-air"

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
