package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Get("/ws/tournaments/{id}", hub.ServeWs)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, tournamentID uuid.UUID) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/" + tournamentID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_MatchUpdatedReachesRoom(t *testing.T) {
	hub, srv := startHub(t)
	tournamentID := uuid.New()
	conn := dial(t, srv, tournamentID)

	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomID(tournamentID)) == 1
	}, time.Second, 10*time.Millisecond)

	hub.MatchUpdated(tournamentID, &bracket.Match{
		ID:           42,
		TournamentID: tournamentID,
		Round:        utils.Ptr(1),
		Status:       bracket.MatchInProgress,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string        `json:"type"`
		RoomID  string        `json:"room_id"`
		Payload bracket.Match `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageMatchUpdated, msg.Type)
	assert.Equal(t, RoomID(tournamentID), msg.RoomID)
	assert.Equal(t, int64(42), msg.Payload.ID)
	assert.Equal(t, bracket.MatchInProgress, msg.Payload.Status)
}

func TestHub_OtherRoomsAreNotNotified(t *testing.T) {
	hub, srv := startHub(t)
	watched, other := uuid.New(), uuid.New()
	conn := dial(t, srv, watched)

	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomID(watched)) == 1
	}, time.Second, 10*time.Millisecond)

	hub.MatchUpdated(other, &bracket.Match{ID: 1, TournamentID: other})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_ClientLeavesOnClose(t *testing.T) {
	hub, srv := startHub(t)
	tournamentID := uuid.New()
	conn := dial(t, srv, tournamentID)

	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomID(tournamentID)) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.ClientCount(RoomID(tournamentID)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServeWs_RejectsBadID(t *testing.T) {
	_, srv := startHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/not-a-uuid"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
