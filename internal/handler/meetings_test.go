package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/internal/meeting"
	"github.com/voxlink-ai/voxlink/pkg/response"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMeetingHandler(meeting.NewService(meeting.NewMemoryStore()), nil)

	r := gin.New()
	r.GET("/api/health", h.Health)
	r.POST("/api/meetings", h.Create)
	r.POST("/api/meetings/:meetingId/attendees", h.Join)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestCreateMeeting(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodPost, "/api/meetings", `{"attendeeName":"Alice"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	data := body.Data.(map[string]any)
	m := data["meeting"].(map[string]any)
	a := data["attendee"].(map[string]any)
	assert.NotEmpty(t, m["meetingId"])
	assert.Equal(t, m["meetingId"], a["meetingId"])
	assert.Equal(t, "Alice", a["name"])
}

func TestCreateMeetingRequiresName(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodPost, "/api/meetings", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinMeeting(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/meetings", `{"attendeeName":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	meetingID := created.Data.(map[string]any)["meeting"].(map[string]any)["meetingId"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/meetings/"+meetingID+"/attendees", `{"attendeeName":"Bob"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var joined response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	a := joined.Data.(map[string]any)["attendee"].(map[string]any)
	assert.Equal(t, "Bob", a["name"])
	assert.Equal(t, meetingID, a["meetingId"])
}

func TestJoinUnknownMeetingReturns404(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodPost, "/api/meetings/nope/attendees", `{"attendeeName":"Bob"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
