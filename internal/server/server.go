// Package server streams scene snapshots and game events to websocket
// spectators.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/vipers/internal/core/events/bus"
	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/game"
)

const (
	writeWait    = 5 * time.Second
	pingPeriod   = 30 * time.Second
	shutdownWait = 5 * time.Second
)

// Config holds spectator feed settings.
type Config struct {
	Addr       string
	Path       string
	Period     time.Duration
	MaxClients int
	SendBuffer int
	Auth       Authenticator
}

// SnapshotSource is read on every broadcast period. *game.Scene satisfies it.
type SnapshotSource interface {
	Snapshot() game.Snapshot
}

// Message is the envelope of every frame sent to spectators.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MessageSnapshot is the type of periodic scene frames.
const MessageSnapshot = "snapshot"

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Server fans frames out to connected spectators. Slow spectators whose send
// buffer fills up are disconnected.
type Server struct {
	cfg      Config
	logger   log.Log
	source   SnapshotSource
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	running atomic.Bool
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Stats counts frames and spectators.
type Stats struct {
	Clients int
	Sent    uint64
	Dropped uint64
}

// New validates cfg and builds a server reading snapshots from source.
func New(cfg Config, source SnapshotSource, logger log.Log) (*Server, error) {
	if cfg.Path == "" || cfg.Path[0] != '/' {
		return nil, fmt.Errorf("path %q: %w", cfg.Path, ErrInvalidConfig)
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("period %v: %w", cfg.Period, ErrInvalidConfig)
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.Auth == nil {
		cfg.Auth = TokenAuth{}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{
		cfg:    cfg,
		logger: logger.Named("spectator"),
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}, nil
}

// Handler serves the websocket feed at Path, the current snapshot as JSON at
// /snapshot and a liveness probe at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run listens on Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts spectators on ln and broadcasts a snapshot every Period
// until ctx is done, then shuts down and disconnects everyone.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: writeWait}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("spectator feed listening",
		log.String("addr", ln.Addr().String()),
		log.String("path", s.cfg.Path))

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			s.Close()
			s.logger.Info("spectator feed stopped", log.Uint64("sent", s.sent.Load()))
			return err
		case err, ok := <-errCh:
			s.Close()
			if ok {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ticker.C:
			s.BroadcastSnapshot()
		}
	}
}

// BroadcastSnapshot sends the current snapshot to every spectator.
func (s *Server) BroadcastSnapshot() {
	if s.source == nil {
		return
	}
	s.Broadcast(Message{Type: MessageSnapshot, Data: s.source.Snapshot()})
}

// Broadcast encodes msg once and queues it on every spectator.
func (s *Server) Broadcast(msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode frame", log.String("type", msg.Type), log.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- frame:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
			s.logger.Warn("spectator too slow, dropping", log.String("client", c.id))
			delete(s.clients, c)
			c.close()
		}
	}
}

// Forward relays bus events of the given types to spectators.
func (s *Server) Forward(events bus.EventBus, types ...string) ([]bus.Subscription, error) {
	subs := make([]bus.Subscription, 0, len(types))
	for _, typ := range types {
		sub, err := events.Subscribe(typ, func(e bus.Event) error {
			s.Broadcast(Message{Type: e.Type(), Data: e.Data()})
			return nil
		})
		if err != nil {
			for _, done := range subs {
				_ = done.Cancel()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Close disconnects every spectator and refuses new ones until the next
// Serve.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	return Stats{Clients: n, Sent: s.sent.Load(), Dropped: s.dropped.Load()}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Auth.Authenticate(r); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.source == nil {
		http.Error(w, "no scene", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Snapshot()); err != nil {
		s.logger.Warn("write snapshot", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Auth.Authenticate(r); err != nil {
		s.logger.Debug("spectator rejected", log.String("remote", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}
	c := &client{id: r.RemoteAddr, conn: conn, send: make(chan []byte, s.cfg.SendBuffer)}
	if err := s.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	s.logger.Debug("spectator connected", log.String("client", c.id))

	go s.writePump(c)
	if s.source != nil {
		s.send(c, Message{Type: MessageSnapshot, Data: s.source.Snapshot()})
	}
	s.readPump(c)
}

func (s *Server) register(c *client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.cfg.MaxClients > 0 && len(s.clients) >= s.cfg.MaxClients {
		return ErrMaxClientsReached
	}
	s.clients[c] = struct{}{}
	return nil
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

func (s *Server) send(c *client, msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
		s.sent.Add(1)
	default:
	}
}

// readPump discards spectator input and unregisters on disconnect.
func (s *Server) readPump(c *client) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.logger.Debug("spectator disconnected", log.String("client", c.id))
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.unregister(c)
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.unregister(c)
				return
			}
		}
	}
}
