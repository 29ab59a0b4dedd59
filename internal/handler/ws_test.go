package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/internal/protocol"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/pkg/recognizer"
)

type stubSession struct{}

func (stubSession) Push([]byte) error { return nil }
func (stubSession) Finish()           {}
func (stubSession) Stop()             {}
func (stubSession) Alive() bool       { return true }

type stubFactory struct{}

func (stubFactory) NewSession(string, recognizer.TranscriptHandler) (recognizer.Session, error) {
	return stubSession{}, nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(context.Context, string, string) ([]byte, error) {
	return nil, nil
}

func newWSServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewWSHandler(session.NewRegistry(), stubFactory{}, stubTranslator{}, stubSynth{}, zap.NewNop())
	r := gin.New()
	r.GET("/ws", h.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type serverEvent struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	ConnectionID string `json:"connectionId"`
}

func readEvent(t *testing.T, conn *websocket.Conn) serverEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev serverEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func joinMsg(meetingID, attendeeID string) protocol.ControlMessage {
	return protocol.ControlMessage{
		Action:         protocol.ActionJoin,
		MeetingID:      meetingID,
		AttendeeID:     attendeeID,
		AttendeeName:   attendeeID,
		SpokenLanguage: "en-US",
		TargetLanguage: "es-US",
	}
}

func TestInvalidJoinKeepsConnectionOpen(t *testing.T) {
	url := newWSServer(t)
	conn := dialWS(t, url)

	sendJSON(t, conn, protocol.ControlMessage{Action: protocol.ActionJoin})
	ev := readEvent(t, conn)
	assert.Equal(t, protocol.TypeError, ev.Type)

	// The same connection can still join once the payload is valid.
	sendJSON(t, conn, joinMsg("m1", "att-a"))
	ev = readEvent(t, conn)
	assert.Equal(t, protocol.TypeJoined, ev.Type)
	assert.NotEmpty(t, ev.ConnectionID)
}

func TestControlBeforeJoinKeepsConnectionOpen(t *testing.T) {
	url := newWSServer(t)
	conn := dialWS(t, url)

	sendJSON(t, conn, protocol.ControlMessage{Action: protocol.ActionMicOn})
	ev := readEvent(t, conn)
	assert.Equal(t, protocol.TypeError, ev.Type)

	sendJSON(t, conn, joinMsg("m1", "att-a"))
	ev = readEvent(t, conn)
	assert.Equal(t, protocol.TypeJoined, ev.Type)
}

func TestThirdJoinRejectedAndClosed(t *testing.T) {
	url := newWSServer(t)

	a := dialWS(t, url)
	sendJSON(t, a, joinMsg("m1", "att-a"))
	require.Equal(t, protocol.TypeJoined, readEvent(t, a).Type)

	b := dialWS(t, url)
	sendJSON(t, b, joinMsg("m1", "att-b"))
	require.Equal(t, protocol.TypeJoined, readEvent(t, b).Type)

	c := dialWS(t, url)
	sendJSON(t, c, joinMsg("m1", "att-c"))
	ev := readEvent(t, c)
	assert.Equal(t, protocol.TypeError, ev.Type)

	// Capacity errors close the transport.
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	assert.Error(t, err)
}

func TestUnknownActionReturnsError(t *testing.T) {
	url := newWSServer(t)
	conn := dialWS(t, url)

	sendJSON(t, conn, protocol.ControlMessage{Action: "rewind"})
	ev := readEvent(t, conn)
	assert.Equal(t, protocol.TypeError, ev.Type)
}
