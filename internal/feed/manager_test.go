package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dexwatch/dexfeed/internal/model"
	"github.com/dexwatch/dexfeed/internal/room"
)

// feedServer is a mock feed endpoint that counts dials and hands each
// accepted connection to the test.
type feedServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	dials  atomic.Int64
}

func newFeedServer(t *testing.T) *feedServer {
	fs := &feedServer{
		conns: make(chan *websocket.Conn, 8),
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		fs.dials.Add(1)
		fs.conns <- conn

		// Hold the connection open; the test closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return fs
}

func (fs *feedServer) accept(t *testing.T) *websocket.Conn {
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func (fs *feedServer) close() {
	fs.server.Close()
}

func testManagerConfig(url string) Config {
	return Config{
		URL:            url,
		ReconnectDelay: 50 * time.Millisecond,
		BufferSize:     100,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestManager_TransactionFlow(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if got := mgr.Status(); got != StatusConnected {
		t.Fatalf("Status = %v, want %v", got, StatusConnected)
	}

	conn := fs.accept(t)
	frame := `{
		"date": "2025-01-15T10:30:00Z",
		"purchase_type": "Buy",
		"usd_value": 150.0,
		"token_quantity": 100.0,
		"token_price": 1.5,
		"owner": "wallet1",
		"dex_type": "raydium",
		"dex_tag": "amm",
		"token_pair": "ABC/SOL",
		"token_name": "ABC"
	}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, "transaction to be applied", func() bool {
		return len(store.RoomTransactions("ABC/SOL")) == 1
	})

	txs := store.RoomTransactions("ABC/SOL")
	if txs[0].TokenPrice != 1.5 {
		t.Errorf("TokenPrice = %v, want 1.5", txs[0].TokenPrice)
	}
	if txs[0].Side != model.SideBuy {
		t.Errorf("Side = %q, want Buy", txs[0].Side)
	}

	stats := mgr.Stats()
	if stats.FramesApplied != 1 {
		t.Errorf("FramesApplied = %d, want 1", stats.FramesApplied)
	}
}

func TestManager_MalformedFrame_NoStateChange(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, "malformed frame to be counted", func() bool {
		return mgr.Stats().DecodeErrors == 1
	})

	if got := mgr.Status(); got != StatusConnected {
		t.Errorf("Status = %v, want %v after malformed frame", got, StatusConnected)
	}
	if got := store.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0", got)
	}
	if got := mgr.Stats().FramesApplied; got != 0 {
		t.Errorf("FramesApplied = %d, want 0", got)
	}
}

func TestManager_CandleReplace(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	first := `{"token_pair":"ABC/SOL","timeframe":"1m","timestamp":60000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":100}`
	second := `{"token_pair":"ABC/SOL","timeframe":"1m","timestamp":60000,"open":1,"high":2.2,"low":0.5,"close":1.8,"volume":140}`
	for _, f := range []string{first, second} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	waitFor(t, "both candles to be applied", func() bool {
		return mgr.Stats().FramesApplied == 2
	})

	candles := store.RoomCandles("ABC/SOL", "1m")
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1", len(candles))
	}
	if candles[0].Close != 1.8 {
		t.Errorf("Close = %v, want 1.8 (second candle replaces first)", candles[0].Close)
	}
}

func TestManager_UnroutableFrame(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	// A price update without a token pair cannot be routed to a room.
	frame := `{"usd_current_price":1.23,"sol_relative_price":0.01}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, "unroutable frame to be counted", func() bool {
		return mgr.Stats().UnknownFrames == 1
	})

	if got := mgr.Stats().FramesApplied; got != 0 {
		t.Errorf("FramesApplied = %d, want 0", got)
	}
	if got := store.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0", got)
	}
}

func TestManager_AutoReconnect(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	// Drop the connection without a close handshake.
	conn.Close()

	waitFor(t, "reconnect", func() bool {
		return fs.dials.Load() >= 2
	})
	waitFor(t, "status connected again", func() bool {
		return mgr.Status() == StatusConnected
	})

	if got := mgr.Stats().Reconnects; got < 1 {
		t.Errorf("Reconnects = %d, want >= 1", got)
	}
}

func TestManager_ServerCleanClose_StillReconnects(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second),
	)
	conn.Close()

	// A server-initiated close is still non-deliberate, so the manager
	// dials again after the delay.
	waitFor(t, "reconnect after clean close", func() bool {
		return fs.dials.Load() >= 2
	})
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	cfg := testManagerConfig(wsURL(fs.server))
	cfg.ReconnectDelay = 150 * time.Millisecond
	mgr := NewManager(cfg, store, nil)

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := fs.accept(t)

	conn.Close()

	// Wait for the manager to notice the loss and arm the timer, then
	// disconnect before it fires.
	waitFor(t, "transport failure noticed", func() bool {
		return mgr.Status() != StatusConnected
	})
	mgr.Disconnect()

	time.Sleep(400 * time.Millisecond)

	if got := fs.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1 (no reconnect after deliberate disconnect)", got)
	}
	if got := mgr.Status(); got != StatusDisconnected {
		t.Errorf("Status = %v, want %v", got, StatusDisconnected)
	}
}

func TestManager_ConnectIdempotent(t *testing.T) {
	fs := newFeedServer(t)
	defer fs.close()

	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig(wsURL(fs.server)), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	fs.accept(t)

	// Second call is a no-op while connected.
	if err := mgr.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fs.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestManager_DialFailure(t *testing.T) {
	store := room.NewStore(room.DefaultConfig(), nil)
	mgr := NewManager(testManagerConfig("ws://127.0.0.1:1/ws"), store, nil)
	defer mgr.Disconnect()

	if err := mgr.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if got := mgr.Status(); got != StatusError {
		t.Errorf("Status = %v, want %v", got, StatusError)
	}
}
