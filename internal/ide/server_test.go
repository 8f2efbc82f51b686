package ide

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, int) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	srv := NewServer(NewStateStore(), NewBridge(), "0.1.0", zerolog.Nop())
	port, err := srv.Start("/test/workspace")
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	return srv, port
}

func dialTestServer(t *testing.T, port int) *websocket.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://127.0.0.1:%d", port)

	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// exchange writes one raw frame and reads back one response frame.
func exchange(t *testing.T, conn *websocket.Conn, frame string) map[string]any {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestServer_StartWritesDiscoveryFileAndStopRemovesIt(t *testing.T) {
	srv, port := startTestServer(t)
	assert.Equal(t, port, srv.Port())

	dir, err := DiscoveryDir()
	require.NoError(t, err)
	lock := fmt.Sprintf("%s/%d.lock", dir, port)
	require.FileExists(t, lock)

	record, err := ReadDiscoveryFile(lock)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ws://127.0.0.1:%d", port), record.Transport)
	assert.Equal(t, "/test/workspace", record.WorkspacePath)

	srv.Stop()
	assert.NoFileExists(t, lock)
}

func TestServer_StartTwiceFails(t *testing.T) {
	srv, _ := startTestServer(t)

	_, err := srv.Start("/test/workspace")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestServer_InitializeAndPing(t *testing.T) {
	_, port := startTestServer(t)
	conn := dialTestServer(t, port)

	resp := exchange(t, conn, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)
	require.NotContains(t, resp, "error")
	result := resp["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, "crit", serverInfo["name"])

	resp = exchange(t, conn, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	require.NotContains(t, resp, "error")
	assert.Equal(t, float64(2), resp["id"])
}

func TestServer_ToolsListOverWire(t *testing.T) {
	_, port := startTestServer(t)
	conn := dialTestServer(t, port)

	resp := exchange(t, conn, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.NotContains(t, resp, "error")
	tools := resp["result"].(map[string]any)["tools"].([]any)
	assert.Len(t, tools, 5)
}

func TestServer_MalformedFrameGetsParseError(t *testing.T) {
	_, port := startTestServer(t)
	conn := dialTestServer(t, port)

	resp := exchange(t, conn, `{not valid json`)
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(CodeParseError), rpcErr["code"])
}

func TestServer_UnknownMethodGetsMethodNotFound(t *testing.T) {
	_, port := startTestServer(t)
	conn := dialTestServer(t, port)

	resp := exchange(t, conn, `{"jsonrpc":"2.0","id":9,"method":"prompts/list"}`)
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(CodeMethodNotFound), rpcErr["code"])
	assert.Equal(t, float64(9), resp["id"])
}

func TestServer_NotificationsGetNoResponse(t *testing.T) {
	_, port := startTestServer(t)
	conn := dialTestServer(t, port)

	// An id-less frame is a notification: nothing comes back, even for a
	// method the server does not know.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"notifications/bogus"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"initialized"}`)))

	// A follow-up ping must be answered first, proving the notifications
	// produced no frames of their own.
	resp := exchange(t, conn, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	assert.Equal(t, float64(3), resp["id"])
	assert.NotContains(t, resp, "error")
}

func TestServer_ClosingOneConnectionLeavesOthersServed(t *testing.T) {
	srv, port := startTestServer(t)

	first := dialTestServer(t, port)
	second := dialTestServer(t, port)

	resp := exchange(t, first, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.NotContains(t, resp, "error")
	resp = exchange(t, second, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.NotContains(t, resp, "error")

	require.NoError(t, first.Close())

	// The surviving connection keeps working.
	resp = exchange(t, second, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.NotContains(t, resp, "error")

	// Registry eventually drops the closed connection.
	require.Eventually(t, func() bool {
		return srv.ClientCount() == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_BroadcastReachesAllClients(t *testing.T) {
	srv, port := startTestServer(t)

	first := dialTestServer(t, port)
	second := dialTestServer(t, port)

	// Handshake both so the registry has seen them.
	exchange(t, first, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	exchange(t, second, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

	srv.Broadcast(NotifyFilesChanged, map[string]any{"count": 2})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var note map[string]any
		require.NoError(t, json.Unmarshal(data, &note))
		assert.Equal(t, NotifyFilesChanged, note["method"])
		assert.NotContains(t, note, "id")
	}
}

func TestServer_ToolCallRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	state := NewStateStore()
	bridge := NewBridge()
	srv := NewServer(state, bridge, "0.1.0", zerolog.Nop())
	port, err := srv.Start("/test/workspace")
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	state.Publish(Snapshot{
		WorkspacePath: "/test/workspace",
		OpenFiles:     []OpenFile{{FilePath: "main.go", LanguageID: "go", IsActive: true}},
	})

	conn := dialTestServer(t, port)

	resp := exchange(t, conn, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"openFile","arguments":{"filePath":"main.go","line":12}}}`)
	require.NotContains(t, resp, "error")
	result := resp["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])

	cmds := bridge.Drain(DrainBudget)
	require.Len(t, cmds, 1)
	open := cmds[0].(OpenFileCommand)
	assert.Equal(t, "main.go", open.Path)
	require.NotNil(t, open.Line)
	assert.Equal(t, 12, *open.Line)
}
