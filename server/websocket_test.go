package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(enableCORS bool) (*httptest.Server, string) {
	server := httptest.NewServer(NewHandler(enableCORS, nil))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return server, wsURL
}

func connectWebSocket(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "should connect to WebSocket")
	return conn
}

func sendJSONRPCRequest(t *testing.T, conn *websocket.Conn, req JSONRPCRequest) {
	err := conn.WriteJSON(req)
	require.NoError(t, err, "should send request")
}

func readJSONRPCResponse(t *testing.T, conn *websocket.Conn) JSONRPCResponse {
	var resp JSONRPCResponse
	err := conn.ReadJSON(&resp)
	require.NoError(t, err, "should read response")
	return resp
}

func TestWebSocket_ValidRequest(t *testing.T) {
	rec := useRecorder(t)
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	sendJSONRPCRequest(t, conn, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "cursor",
		Params:  json.RawMessage(`{"x": 3, "y": 4}`),
		ID:      1,
	})
	resp := readJSONRPCResponse(t, conn)

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, 1, int(resp.ID.(float64)))
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"x": float64(3), "y": float64(4)}, resp.Result)
	assert.Equal(t, []string{"cursor"}, rec.Directions())
}

func TestWebSocket_SequentialRequests(t *testing.T) {
	rec := useRecorder(t)
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	for i, method := range []string{"click", "doubleclick", "mouseup"} {
		sendJSONRPCRequest(t, conn, JSONRPCRequest{JSONRPC: "2.0", Method: method, ID: i + 1})
		resp := readJSONRPCResponse(t, conn)
		require.Nil(t, resp.Error, method)
		assert.Equal(t, i+1, int(resp.ID.(float64)))
	}
	assert.Equal(t, []string{"click", "doubleclick", "mouseup"}, rec.Directions())
}

func TestWebSocket_InvalidRequests(t *testing.T) {
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	tests := []struct {
		name    string
		req     JSONRPCRequest
		code    int
		message string
		data    string
	}{
		{"wrong version", JSONRPCRequest{JSONRPC: "1.0", Method: "keys", ID: 1}, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'"},
		{"missing id", JSONRPCRequest{JSONRPC: "2.0", Method: "keys"}, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required"},
		{"missing method", JSONRPCRequest{JSONRPC: "2.0", ID: 1}, ErrCodeInvalidRequest, "Invalid Request", "'method' is required"},
		{"unknown method", JSONRPCRequest{JSONRPC: "2.0", Method: "teleport", ID: 1}, ErrCodeMethodNotFound, "Method not found", "teleport not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendJSONRPCRequest(t, conn, tt.req)
			resp := readJSONRPCResponse(t, conn)

			require.NotNil(t, resp.Error)
			errorMap := resp.Error.(map[string]interface{})
			assert.Equal(t, float64(tt.code), errorMap["code"])
			assert.Equal(t, tt.message, errorMap["message"])
			assert.Equal(t, tt.data, errorMap["data"])
		})
	}
}

func TestWebSocket_InvalidJSON(t *testing.T) {
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{invalid json")))
	resp := readJSONRPCResponse(t, conn)

	errorMap := resp.Error.(map[string]interface{})
	assert.Equal(t, float64(ErrCodeParseError), errorMap["code"])
	assert.Equal(t, "Parse error", errorMap["message"])
}

func TestWebSocket_BinaryMessageRejected(t *testing.T) {
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"jsonrpc":"2.0"}`)))
	resp := readJSONRPCResponse(t, conn)

	errorMap := resp.Error.(map[string]interface{})
	assert.Equal(t, float64(ErrCodeInvalidRequest), errorMap["code"])
	assert.Equal(t, "only text messages accepted for requests", errorMap["data"])
}

func TestWebSocket_InvalidParams(t *testing.T) {
	useRecorder(t)
	server, wsURL := setupTestServer(false)
	defer server.Close()

	conn := connectWebSocket(t, wsURL)
	defer conn.Close()

	sendJSONRPCRequest(t, conn, JSONRPCRequest{JSONRPC: "2.0", Method: "hit", ID: 7})
	resp := readJSONRPCResponse(t, conn)

	errorMap := resp.Error.(map[string]interface{})
	assert.Equal(t, float64(ErrCodeInvalidParams), errorMap["code"])
	assert.Equal(t, "Invalid params", errorMap["message"])
}

func TestWebSocket_CrossOrigin(t *testing.T) {
	t.Run("rejected without CORS", func(t *testing.T) {
		server, wsURL := setupTestServer(false)
		defer server.Close()

		header := http.Header{"Origin": []string{"http://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("allowed with CORS", func(t *testing.T) {
		server, wsURL := setupTestServer(true)
		defer server.Close()

		header := http.Header{"Origin": []string{"http://evil.example"}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		conn.Close()
	})
}

func TestIsSameOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://localhost:12500/ws", nil)
	assert.True(t, isSameOrigin(req))

	req.Header.Set("Origin", "http://localhost:12500")
	assert.True(t, isSameOrigin(req))

	req.Header.Set("Origin", "http://example.com")
	assert.False(t, isSameOrigin(req))
}
