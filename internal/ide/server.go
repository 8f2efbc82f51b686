package ide

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// outboundCapacity bounds each connection's delivery queue. The writer
// goroutine is the only reader, so back-pressure here stalls at most the
// connection that caused it.
const outboundCapacity = 32

// ErrAlreadyStarted is returned when Start is called on a running server.
var ErrAlreadyStarted = errors.New("ide server already started")

// Reserved server-to-client notification methods. Nothing emits these yet;
// they document the extension point the broadcast path exists for.
const (
	NotifySelectionChanged   = "crit/selectionChanged"
	NotifyActiveFileChanged  = "crit/activeFileChanged"
	NotifyFilesChanged       = "crit/filesChanged"
	NotifyDiagnosticsChanged = "crit/diagnosticsChanged"
)

// client is one active connection and its outbound delivery queue.
type client struct {
	id   string
	send chan []byte
	done chan struct{}
}

// connectionRegistry tracks open connections. A linear scan is fine at the
// expected scale of a handful of IDE connections.
type connectionRegistry struct {
	mu      sync.Mutex
	clients []*client
	nextID  uint64
}

func (r *connectionRegistry) add(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.id = "client-" + strconv.FormatUint(r.nextID, 10)
	r.clients = append(r.clients, c)
}

func (r *connectionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.clients {
		if c.id == id {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			return
		}
	}
}

func (r *connectionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// broadcast enqueues data for every connection, dropping it for connections
// whose queue is full rather than blocking.
func (r *connectionRegistry) broadcast(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Server accepts WebSocket connections from external clients and serves the
// MCP protocol over them. It owns the discovery file for its lifetime.
type Server struct {
	state      *StateStore
	bridge     *Bridge
	dispatcher *Dispatcher
	conns      *connectionRegistry
	version    string
	log        zerolog.Logger

	mu        sync.Mutex
	httpSrv   *http.Server
	discovery *DiscoveryFile
	port      int
}

// NewServer creates a server that reads review state from store and emits
// host-loop commands over bridge. It does not listen until Start is called.
func NewServer(state *StateStore, bridge *Bridge, version string, log zerolog.Logger) *Server {
	registry := NewRegistry(state, bridge)
	return &Server{
		state:      state,
		bridge:     bridge,
		dispatcher: NewDispatcher(registry, version),
		conns:      &connectionRegistry{},
		version:    version,
		log:        log,
	}
}

// Start binds an ephemeral loopback port, writes the discovery file, and
// begins accepting connections in the background. It returns the bound port.
func (s *Server) Start(workspacePath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		return 0, ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("bind ide server: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	discovery, err := CreateDiscoveryFile(port, workspacePath, s.version)
	if err != nil {
		_ = ln.Close()
		return 0, fmt.Errorf("write discovery file: %w", err)
	}

	srv := &http.Server{Handler: http.HandlerFunc(s.handleUpgrade)}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("ide server stopped")
		}
	}()

	s.httpSrv = srv
	s.discovery = discovery
	s.port = port

	s.log.Info().Int("port", port).Str("workspace", workspacePath).Msg("ide server listening")
	return port, nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// ClientCount returns the number of open connections.
func (s *Server) ClientCount() int {
	return s.conns.count()
}

// Broadcast sends a notification to every connected client. Reserved for
// the notification methods above; no response is expected.
func (s *Server) Broadcast(method string, params any) {
	data, err := EncodeNotification(NewNotification(method, params))
	if err != nil {
		s.log.Error().Err(err).Str("method", method).Msg("encode broadcast")
		return
	}
	s.conns.broadcast(data)
}

// Stop tears down all connections and deletes the discovery file. Removing
// the discovery file is the last externally visible act of shutdown.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.httpSrv
	discovery := s.discovery
	s.httpSrv = nil
	s.discovery = nil
	s.mu.Unlock()

	if srv != nil {
		_ = srv.Close()
	}
	if discovery != nil {
		if err := discovery.Remove(); err != nil {
			s.log.Warn().Err(err).Msg("remove discovery file")
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Loopback-only transport; the browser origin check does not apply.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleUpgrade promotes an accepted connection to a WebSocket and runs its
// reader and writer duties. Errors tear down only this connection.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket handshake failed")
		return
	}

	c := &client{
		send: make(chan []byte, outboundCapacity),
		done: make(chan struct{}),
	}
	s.conns.add(c)
	s.log.Debug().Str("client", c.id).Msg("ide client connected")

	// Writer duty: sole reader of the outbound queue.
	go func() {
		defer func() { _ = conn.Close() }()
		for {
			select {
			case <-c.done:
				return
			case data := <-c.send:
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}()

	// Reader duty. Ping frames are answered with pongs by gorilla's default
	// ping handler at the transport layer and never reach the protocol.
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("client", c.id).Msg("ide client read error")
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := s.handleFrame(data)
		if resp == nil {
			continue
		}
		select {
		case c.send <- resp:
		case <-c.done:
		}
	}

	// Removal affects only this connection's delivery queue.
	s.conns.remove(c.id)
	close(c.done)
	s.log.Debug().Str("client", c.id).Msg("ide client disconnected")
}

// handleFrame decodes one inbound text frame, dispatches it, and returns the
// encoded response, or nil when no response should be written.
func (s *Server) handleFrame(data []byte) []byte {
	req, rpcErr := DecodeRequest(data)
	if rpcErr != nil {
		return mustEncode(ErrorResponse(req.ID, rpcErr), s.log)
	}

	resp := s.dispatcher.Handle(req)
	if resp == nil {
		return nil
	}
	// Notifications never get a response, even for unknown methods.
	if req.IsNotification() {
		return nil
	}

	return mustEncode(resp, s.log)
}

func mustEncode(resp *Response, log zerolog.Logger) []byte {
	data, err := EncodeResponse(resp)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		fallback, _ := EncodeResponse(ErrorResponse(resp.ID, ErrInternal("response serialization failed")))
		return fallback
	}
	return data
}
