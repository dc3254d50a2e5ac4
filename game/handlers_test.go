package game

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GenniaApp/cubebattle/crypto"
)

func newTestHandler(t *testing.T) (*GameHandler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	l := newTestLobby(t, 2)
	sessions := crypto.NewSessionManager("test-key", time.Hour)
	h := NewGameHandler(l, sessions, nil)

	r := gin.New()
	r.GET("/get_rooms", h.GetRoomsHandler)
	r.GET("/create_room", h.CreateRoomHandler)
	return h, r
}

func TestCreateRoomHandler(t *testing.T) {
	t.Parallel()
	_, r := newTestHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/create_room?roomName=duel", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "1", body["roomId"])
}

func TestCreateRoomHandlerReportsCapacity(t *testing.T) {
	t.Parallel()
	_, r := newTestHandler(t)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/create_room", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/create_room", nil))
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, ErrRoomCapacity.Error(), body["message"])
}

func TestGetRoomsHandler(t *testing.T) {
	t.Parallel()
	_, r := newTestHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/create_room?roomName=duel", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)

	listing := map[string]RoomSummary{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Contains(t, listing, "1")
	assert.Equal(t, "duel", listing["1"].RoomName)
}

func TestSanitizeUsername(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input    string
		expected string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"al\x00ice\n", "alice"},
		{"   ", ""},
		{"\t\n", ""},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmno"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, sanitizeUsername(tc.input), "input %q", tc.input)
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()
	openCheck := originChecker(nil)
	restrictedCheck := originChecker([]string{"https://play.example.com"})

	makeReq := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	assert.True(t, openCheck(makeReq("https://anything.example.com")))
	assert.True(t, restrictedCheck(makeReq("https://play.example.com")))
	assert.False(t, restrictedCheck(makeReq("https://evil.example.com")))
	assert.True(t, restrictedCheck(makeReq("")))
}
