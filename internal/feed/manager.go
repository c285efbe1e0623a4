package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dexwatch/dexfeed/internal/classify"
	"github.com/dexwatch/dexfeed/internal/room"
)

// Manager owns the single feed connection and is the only writer to
// the room store. It classifies each inbound frame and applies the one
// corresponding store mutation; transport failures are absorbed here
// and surface to consumers only through Status().
type Manager struct {
	cfg    Config
	store  *room.Store
	logger *slog.Logger

	mu             sync.Mutex
	status         Status
	client         Client
	parentCtx      context.Context
	dispatchCancel context.CancelFunc
	reconnectTimer *time.Timer
	deliberate     bool // true between Disconnect() and the next Connect()

	// Cumulative counters (guarded by mu).
	framesReceived int64
	framesApplied  int64
	decodeErrors   int64
	unknownFrames  int64
	reconnects     int64
}

// NewManager creates a connection manager writing into store.
func NewManager(cfg Config, store *room.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		status: StatusDisconnected,
	}
}

// Connect opens the feed connection. It is a no-op while already
// connecting or connected. A dial failure is returned to the caller
// and also schedules an automatic retry.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusConnecting || m.status == StatusConnected {
		m.mu.Unlock()
		return nil
	}
	m.deliberate = false
	m.stopReconnectLocked()
	m.setStatusLocked(StatusConnecting)
	m.parentCtx = ctx

	cl := NewClient(ClientConfig{
		URL:              m.cfg.URL,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.BufferSize,
	}, m.logger)
	m.client = cl
	m.mu.Unlock()

	if err := cl.Connect(ctx); err != nil {
		m.logger.Warn("feed dial failed", "url", m.cfg.URL, "error", err)

		m.mu.Lock()
		m.client = nil
		m.setStatusLocked(StatusError)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	if m.deliberate {
		// Disconnect() won the race while the dial was in flight.
		m.mu.Unlock()
		cl.Close()
		return nil
	}
	m.setStatusLocked(StatusConnected)
	dctx, cancel := context.WithCancel(ctx)
	m.dispatchCancel = cancel
	m.mu.Unlock()

	go m.dispatch(dctx, cl)

	m.logger.Info("feed connected", "url", m.cfg.URL)
	return nil
}

// Disconnect deliberately tears the connection down: it cancels any
// pending reconnect timer first, so no reconnect can race the
// shutdown, then closes the transport with a normal-closure code.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.deliberate = true
	m.stopReconnectLocked()
	if m.dispatchCancel != nil {
		m.dispatchCancel()
		m.dispatchCancel = nil
	}
	cl := m.client
	m.client = nil
	m.setStatusLocked(StatusDisconnected)
	m.mu.Unlock()

	if cl != nil {
		cl.Close()
	}

	m.logger.Info("feed disconnected")
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Stats returns cumulative frame counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		FramesReceived: m.framesReceived,
		FramesApplied:  m.framesApplied,
		DecodeErrors:   m.decodeErrors,
		UnknownFrames:  m.unknownFrames,
		Reconnects:     m.reconnects,
	}
}

// setStatusLocked records a state transition. Caller must hold mu.
func (m *Manager) setStatusLocked(s Status) {
	if m.status == s {
		return
	}
	m.logger.Debug("connection status", "from", m.status.String(), "to", s.String())
	m.status = s
}

// stopReconnectLocked cancels a pending reconnect timer. Caller must
// hold mu.
func (m *Manager) stopReconnectLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

// scheduleReconnectLocked arms the fixed-delay reconnect timer. Caller
// must hold mu. No backoff and no attempt cap: the feed is expected to
// come back, and consumers watch Status() in the meantime.
func (m *Manager) scheduleReconnectLocked() {
	if m.deliberate || m.reconnectTimer != nil {
		return
	}

	m.logger.Info("scheduling reconnect", "delay", m.cfg.ReconnectDelay)

	m.reconnectTimer = time.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.mu.Lock()
		m.reconnectTimer = nil
		if m.deliberate {
			m.mu.Unlock()
			return
		}
		m.reconnects++
		ctx := m.parentCtx
		m.mu.Unlock()

		if ctx == nil {
			ctx = context.Background()
		}
		if err := ctx.Err(); err != nil {
			return
		}

		// A failed attempt schedules the next one from inside Connect.
		m.Connect(ctx)
	})
}

// dispatch consumes frames and transport errors from one client until
// the connection dies or the manager is shut down.
func (m *Manager) dispatch(ctx context.Context, cl Client) {
	for {
		select {
		case <-ctx.Done():
			return

		case err := <-cl.Errors():
			m.handleTransportFailure(cl, err)
			return

		case msg, ok := <-cl.Messages():
			if !ok {
				return
			}
			m.handleFrame(msg.Data)
		}
	}
}

// handleTransportFailure records the non-deliberate connection loss
// and arms the reconnect timer.
func (m *Manager) handleTransportFailure(cl Client, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deliberate {
		return
	}

	cl.Close()
	if m.client == cl {
		m.client = nil
	}
	if m.dispatchCancel != nil {
		m.dispatchCancel()
		m.dispatchCancel = nil
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.logger.Warn("feed closed by server", "error", err)
		m.setStatusLocked(StatusDisconnected)
	} else {
		m.logger.Warn("feed transport error", "error", err)
		m.setStatusLocked(StatusError)
	}

	m.scheduleReconnectLocked()
}

// handleFrame decodes, classifies, and applies one inbound frame.
// A frame that fails to decode or parse is dropped with no state
// transition and no store mutation.
func (m *Manager) handleFrame(data []byte) {
	m.mu.Lock()
	m.framesReceived++
	m.mu.Unlock()

	fields, err := classify.Decode(data)
	if err != nil {
		m.logger.Warn("dropping malformed frame", "error", err)
		m.countDecodeError()
		return
	}

	switch kind := classify.Classify(fields); kind {
	case classify.KindTransaction:
		tx, err := classify.ParseTransaction(data)
		if err != nil {
			m.logger.Warn("dropping frame", "kind", kind.String(), "error", err)
			m.countDecodeError()
			return
		}
		m.store.AddTransaction(tx)

	case classify.KindPeriodMetrics:
		u, err := classify.ParsePeriodMetrics(data)
		if err != nil {
			m.logger.Warn("dropping frame", "kind", kind.String(), "error", err)
			m.countDecodeError()
			return
		}
		m.store.SetPeriodMetrics(u.TokenPair, u.Period, u.Metrics)

	case classify.KindCandle:
		c, err := classify.ParseCandle(data)
		if err != nil {
			m.logger.Warn("dropping frame", "kind", kind.String(), "error", err)
			m.countDecodeError()
			return
		}
		m.store.UpsertCandle(c)

	case classify.KindPrice:
		p, err := classify.ParsePrice(data)
		if err != nil {
			m.logger.Warn("dropping frame", "kind", kind.String(), "error", err)
			m.countDecodeError()
			return
		}
		m.store.SetPrice(p.TokenPair, p.PriceUSD, p.PriceSOL)

	default:
		// Unroutable or unrecognized shape: informational, not an error.
		m.logger.Debug("discarding unclassified frame", "len", len(data))
		m.mu.Lock()
		m.unknownFrames++
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.framesApplied++
	m.mu.Unlock()
}

func (m *Manager) countDecodeError() {
	m.mu.Lock()
	m.decodeErrors++
	m.mu.Unlock()
}
