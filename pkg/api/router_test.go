package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/devicecontrols/pkg/api/types"
	"github.com/urmzd/devicecontrols/pkg/controls"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

func newTestRouter(t *testing.T) (*Router, *controls.Service) {
	t.Helper()
	svc, err := controls.NewService(device.DefaultCatalog(), i18n.New("en"))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return NewRouter(svc, schema.NewValidator()), svc
}

func do(t *testing.T, r *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	var resp types.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Controls)
	assert.Empty(t, resp.ActiveStream)
}

func TestRequestID_Propagated(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestListControls(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodGet, "/api/v1/controls", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Controls []map[string]any `json:"controls"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, device.ToggleButtonID, resp.Controls[0]["id"])
	assert.Equal(t, device.SliderButtonID, resp.Controls[1]["id"])
}

func TestGetControl(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(t, r, http.MethodGet, "/api/v1/controls/"+device.SliderButtonID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Control struct {
			ID    string `json:"id"`
			State struct {
				Value map[string]any `json:"value"`
			} `json:"state"`
		} `json:"control"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, device.SliderButtonID, resp.Control.ID)
	assert.Equal(t, 1.0, resp.Control.State.Value["level"])

	rr = do(t, r, http.MethodGet, "/api/v1/controls/unknown_id", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPerformAction(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name    string
		id      string
		body    string
		outcome device.Outcome
		clamped bool
	}{
		{"toggle on", device.ToggleButtonID, `{"type":"boolean","value":true}`, device.OutcomeApplied, false},
		{"slider clamps", device.SliderButtonID, `{"type":"float","value":15}`, device.OutcomeApplied, true},
		{"unknown device", "unknown_id", `{"type":"boolean","value":true}`, device.OutcomeUnknownDevice, false},
		{"kind mismatch", device.ToggleButtonID, `{"type":"float","value":3}`, device.OutcomeKindMismatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, http.MethodPost, "/api/v1/controls/"+tt.id+"/actions", tt.body)
			require.Equal(t, http.StatusAccepted, rr.Code)

			var resp types.ActionResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, device.ResponseOK, resp.Response)
			assert.Equal(t, tt.outcome, resp.Outcome)
			assert.Equal(t, tt.clamped, resp.Clamped)
		})
	}

	rr := do(t, r, http.MethodGet, "/api/v1/controls/"+device.SliderButtonID, "")
	assert.Contains(t, rr.Body.String(), `"level":10`)
}

func TestPerformAction_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		body    string
		wantErr string
	}{
		{``, "invalid_request"},
		{`null`, "invalid_request"},
		{`not json`, "invalid_request"},
		{`[true]`, "invalid_request"},
		{`{"type":"boolean"}`, "validation_error"},
		{`{"type":"color","value":1}`, "validation_error"},
		{`{"type":"boolean","value":"yes"}`, "validation_error"},
	}
	for _, tt := range tests {
		rr := do(t, r, http.MethodPost, "/api/v1/controls/"+device.ToggleButtonID+"/actions", tt.body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "body %q", tt.body)

		var resp types.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, tt.wantErr, resp.Error, "body %q", tt.body)
	}

	rr := do(t, r, http.MethodGet, "/api/v1/controls/"+device.ToggleButtonID, "")
	assert.Contains(t, rr.Body.String(), `"on":false`)
}

func TestStream_RequiresIDs(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/controls/stream", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/controls/ws?ids=,", "").Code)
}

type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, rd *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStream_SSE(t *testing.T) {
	r, _ := newTestRouter(t)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/controls/stream?ids=" + device.ToggleButtonID + "," + device.SliderButtonID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readSSE(t, rd).name)

	seed := readSSE(t, rd)
	assert.Equal(t, "state", seed.name)
	assert.Contains(t, seed.data, device.ToggleButtonID)
	assert.Equal(t, "state", readSSE(t, rd).name)

	post, err := http.Post(srv.URL+"/api/v1/controls/"+device.ToggleButtonID+"/actions", "application/json",
		strings.NewReader(`{"type":"boolean","value":true}`))
	require.NoError(t, err)
	post.Body.Close()

	ev := readSSE(t, rd)
	assert.Equal(t, "state", ev.name)

	var st struct {
		DeviceID   string         `json:"device_id"`
		Value      map[string]any `json:"value"`
		StatusText string         `json:"status_text"`
	}
	require.NoError(t, json.Unmarshal([]byte(ev.data), &st))
	assert.Equal(t, device.ToggleButtonID, st.DeviceID)
	assert.Equal(t, true, st.Value["on"])
	assert.Equal(t, "ON", st.StatusText)
}

func TestStream_WebSocket(t *testing.T) {
	r, svc := newTestRouter(t)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/controls/ws?ids=" + device.SliderButtonID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type     string          `json:"type"`
		StreamID string          `json:"stream_id"`
		Payload  json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg.Type)

	active, ok := svc.ActiveStream()
	require.True(t, ok)
	assert.Equal(t, active, msg.StreamID)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)

	rr := do(t, r, http.MethodPost, "/api/v1/controls/"+device.SliderButtonID+"/actions", `{"type":"float","value":7}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.Contains(t, string(msg.Payload), `"level":7`)
}

func TestStream_WebSocketSuperseded(t *testing.T) {
	r, svc := newTestRouter(t)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/controls/ws?ids=" + device.ToggleButtonID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg types.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg)) // connected
	require.NoError(t, conn.ReadJSON(&msg)) // seed

	other, err := svc.Open(t.Context(), []string{device.SliderButtonID})
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "closed", msg.Type)
}
