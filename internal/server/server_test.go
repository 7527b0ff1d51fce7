package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vipers/internal/core/events/bus"
	"github.com/zeusync/vipers/internal/game"
)

type fakeScene struct {
	tick atomic.Uint64
}

func (f *fakeScene) Snapshot() game.Snapshot {
	return game.Snapshot{Tick: f.tick.Load(), Width: 100, Height: 50}
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func testConfig() Config {
	return Config{Path: "/ws", Period: 20 * time.Millisecond}
}

func startServer(t *testing.T, cfg Config, src SnapshotSource) (*Server, string) {
	t.Helper()
	srv, err := New(cfg, src, nil)
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})
	return srv, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Path: "ws", Period: time.Second}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(Config{Path: "/ws"}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSpectatorReceivesSnapshotAndBroadcasts(t *testing.T) {
	scene := &fakeScene{}
	scene.tick.Store(7)
	srv, url := startServer(t, testConfig(), scene)
	conn := dial(t, url+"/ws")

	first := read(t, conn)
	assert.Equal(t, MessageSnapshot, first.Type)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	assert.Equal(t, uint64(7), snap.Tick)
	assert.Equal(t, 100.0, snap.Width)
	assert.Equal(t, 1, srv.Stats().Clients)

	srv.Broadcast(Message{Type: "hello", Data: map[string]int{"n": 1}})
	got := read(t, conn)
	assert.Equal(t, "hello", got.Type)
	assert.JSONEq(t, `{"n":1}`, string(got.Data))

	scene.tick.Store(8)
	srv.BroadcastSnapshot()
	got = read(t, conn)
	require.NoError(t, json.Unmarshal(got.Data, &snap))
	assert.Equal(t, uint64(8), snap.Tick)
	assert.GreaterOrEqual(t, srv.Stats().Sent, uint64(3))
}

func TestForwardRelaysBusEvents(t *testing.T) {
	srv, url := startServer(t, testConfig(), nil)
	b := bus.New()
	subs, err := srv.Forward(b, game.EventViperDied, game.EventFoodEaten)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	conn := dial(t, url+"/ws")
	require.Eventually(t, func() bool { return srv.Stats().Clients == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(bus.NewEvent(game.EventViperDied, "scene",
		game.ViperDied{ViperID: "v1", Cause: game.CauseWall}, nil)))
	got := read(t, conn)
	assert.Equal(t, game.EventViperDied, got.Type)
	var died game.ViperDied
	require.NoError(t, json.Unmarshal(got.Data, &died))
	assert.Equal(t, "v1", died.ViperID)
	assert.Equal(t, game.CauseWall, died.Cause)

	// unrelated types stay on the bus
	require.NoError(t, b.Publish(bus.NewEvent(game.EventViperSpawned, "scene", nil, nil)))
	srv.Broadcast(Message{Type: "marker"})
	assert.Equal(t, "marker", read(t, conn).Type)
}

func TestTokenAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = TokenAuth{Token: "secret"}
	_, url := startServer(t, cfg, &fakeScene{})

	_, resp, err := websocket.DefaultDialer.Dial(url+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, _, err = websocket.DefaultDialer.Dial(url+"/ws?token=wrong", nil)
	require.Error(t, err)

	conn := dial(t, url+"/ws?token=secret")
	assert.Equal(t, MessageSnapshot, read(t, conn).Type)

	header := http.Header{"Authorization": []string{"Bearer secret"}}
	conn2, _, err := websocket.DefaultDialer.Dial(url+"/ws", header)
	require.NoError(t, err)
	defer conn2.Close()
	assert.Equal(t, MessageSnapshot, read(t, conn2).Type)
}

func TestMaxClients(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClients = 1
	_, url := startServer(t, cfg, &fakeScene{})

	first := dial(t, url+"/ws")
	read(t, first)

	second := dial(t, url+"/ws")
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "got %v", err)
}

func TestSnapshotEndpoint(t *testing.T) {
	scene := &fakeScene{}
	scene.tick.Store(3)
	srv, err := New(testConfig(), scene, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(3), snap.Tick)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeBroadcastsPeriodicallyAndShutsDown(t *testing.T) {
	scene := &fakeScene{}
	srv, err := New(testConfig(), scene, nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn := dial(t, "ws://"+ln.Addr().String()+"/ws")
	read(t, conn)
	scene.tick.Store(42)
	deadline := time.Now().Add(2 * time.Second)
	for {
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(read(t, conn).Data, &snap))
		if snap.Tick == 42 {
			break
		}
		require.True(t, time.Now().Before(deadline), "no periodic snapshot")
	}

	assert.ErrorIs(t, srv.Serve(ctx, ln), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Zero(t, srv.Stats().Clients)
}

func TestServeAgainAfterShutdown(t *testing.T) {
	srv, err := New(testConfig(), &fakeScene{}, nil)
	require.NoError(t, err)

	for round := range 2 {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Serve(ctx, ln) }()

		conn := dial(t, "ws://"+ln.Addr().String()+"/ws")
		assert.Equal(t, MessageSnapshot, read(t, conn).Type, "round %d", round)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not return")
		}
	}
}
