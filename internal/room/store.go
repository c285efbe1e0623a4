package room

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dexwatch/dexfeed/internal/model"
)

// Config holds room store capacities. The defaults are the dashboard's
// behavioral contract; they are configurable for tests and tooling.
type Config struct {
	TransactionCap       int // per-room transaction log
	GlobalTransactionCap int // cross-room transaction log
	CandleCap            int // per (room, timeframe) candle series
}

// DefaultConfig returns the standard capacities.
func DefaultConfig() Config {
	return Config{
		TransactionCap:       100,
		GlobalTransactionCap: 500,
		CandleCap:            1000,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.TransactionCap <= 0 {
		c.TransactionCap = def.TransactionCap
	}
	if c.GlobalTransactionCap <= 0 {
		c.GlobalTransactionCap = def.GlobalTransactionCap
	}
	if c.CandleCap <= 0 {
		c.CandleCap = def.CandleCap
	}
}

// roomState is the per-pair aggregation unit: bounded transaction log,
// per-timeframe candle series, metrics snapshot, subscriber set.
type roomState struct {
	pair         string
	transactions *ring[model.Transaction]
	candles      map[string][]model.Candle // timeframe → ascending by timestamp
	metrics      *model.Metrics            // nil until first metrics or price update
	subscribers  map[string]struct{}
}

// Stats are cumulative store counters.
type Stats struct {
	Rooms           int   `json:"rooms"`
	ActiveRooms     int   `json:"active_rooms"`
	Transactions    int64 `json:"transactions"`
	Candles         int64 `json:"candles"`
	MetricsUpdates  int64 `json:"metrics_updates"`
	PriceUpdates    int64 `json:"price_updates"`
	GlobalLogLength int   `json:"global_log_length"`
}

// Store is the room map plus the global transaction log. It is the
// single mutable shared resource of the pipeline: the feed manager is
// the only writer, all other components read through snapshot
// accessors. Accessors never return references into live state.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*roomState
	all   *ring[model.Transaction]

	// Cumulative counters (guarded by mu).
	txApplied      int64
	candlesApplied int64
	metricsApplied int64
	pricesApplied  int64
}

// NewStore creates an empty store.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Store{
		cfg:    cfg,
		logger: logger,
		rooms:  make(map[string]*roomState),
		all:    newRing[model.Transaction](cfg.GlobalTransactionCap),
	}
}

// ensureRoomLocked returns the room for pair, creating it on first
// reference. Caller must hold the write lock.
func (s *Store) ensureRoomLocked(pair string) *roomState {
	if r, ok := s.rooms[pair]; ok {
		return r
	}

	r := &roomState{
		pair:         pair,
		transactions: newRing[model.Transaction](s.cfg.TransactionCap),
		candles:      make(map[string][]model.Candle),
		subscribers:  make(map[string]struct{}),
	}
	s.rooms[pair] = r
	s.logger.Debug("room created", "pair", pair)
	return r
}

// ensureMetricsLocked returns the room's metrics snapshot, creating a
// zero-valued one if needed. Caller must hold the write lock.
func (r *roomState) ensureMetricsLocked() *model.Metrics {
	if r.metrics == nil {
		r.metrics = &model.Metrics{Periods: make(map[string]model.PeriodMetrics)}
	}
	return r.metrics
}

// -----------------------------------------------------------------------------
// Write side (feed manager only)
// -----------------------------------------------------------------------------

// AddTransaction appends a trade to its room's log and to the global log.
func (s *Store) AddTransaction(tx model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensureRoomLocked(tx.TokenPair)
	r.transactions.push(tx)
	s.all.push(tx)
	s.txApplied++
}

// SetPeriodMetrics overwrites one period's entry in a room's metrics
// snapshot, leaving other periods and prices intact.
func (s *Store) SetPeriodMetrics(pair, period string, pm model.PeriodMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.ensureRoomLocked(pair).ensureMetricsLocked()
	m.Periods[period] = pm
	s.metricsApplied++
}

// SetPrice overwrites a room's last-known USD and SOL-relative prices.
func (s *Store) SetPrice(pair string, usd, sol float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.ensureRoomLocked(pair).ensureMetricsLocked()
	m.PriceUSD = usd
	m.PriceSOL = sol
	s.pricesApplied++
}

// UpsertCandle merges a candle into its room's timeframe series.
func (s *Store) UpsertCandle(c model.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensureRoomLocked(c.TokenPair)
	r.candles[c.Timeframe] = upsertCandle(r.candles[c.Timeframe], c, s.cfg.CandleCap)
	s.candlesApplied++
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

// Join adds a subscriber to a room, creating the room if needed.
// Re-adding an existing id is a no-op.
func (s *Store) Join(pair, subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensureRoomLocked(pair)
	if _, ok := r.subscribers[subscriberID]; ok {
		return
	}
	r.subscribers[subscriberID] = struct{}{}
	s.logger.Debug("subscriber joined", "pair", pair, "subscriber", subscriberID,
		"count", len(r.subscribers))
}

// Leave removes a subscriber from a room. The room and its history are
// retained regardless of the resulting count.
func (s *Store) Leave(pair, subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[pair]
	if !ok {
		return
	}
	if _, ok := r.subscribers[subscriberID]; !ok {
		return
	}
	delete(r.subscribers, subscriberID)
	s.logger.Debug("subscriber left", "pair", pair, "subscriber", subscriberID,
		"count", len(r.subscribers))
}

// NewSubscriberID returns a process-unique subscriber identifier.
// Every logical consumer must hold its own id and pair each Join with
// a Leave on every exit path.
func NewSubscriberID() string {
	return "sub-" + uuid.NewString()
}

// -----------------------------------------------------------------------------
// Read side (snapshot accessors)
// -----------------------------------------------------------------------------

// RoomTransactions returns the room's bounded log, newest first.
// Empty for unknown pairs.
func (s *Store) RoomTransactions(pair string) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[pair]
	if !ok {
		return []model.Transaction{}
	}
	return r.transactions.newestFirst()
}

// AllTransactions returns the global log, newest first.
func (s *Store) AllTransactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all.newestFirst()
}

// RoomMetrics returns a deep copy of the room's metrics snapshot, or
// nil if the room is absent or has never received metrics.
func (s *Store) RoomMetrics(pair string) *model.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[pair]
	if !ok || r.metrics == nil {
		return nil
	}

	out := &model.Metrics{
		Periods:  make(map[string]model.PeriodMetrics, len(r.metrics.Periods)),
		PriceUSD: r.metrics.PriceUSD,
		PriceSOL: r.metrics.PriceSOL,
	}
	for period, pm := range r.metrics.Periods {
		if pm.Stats != nil {
			stats := *pm.Stats
			pm.Stats = &stats
		}
		out.Periods[period] = pm
	}
	return out
}

// RoomCandles returns the sorted-ascending candle series for one
// timeframe, or empty if absent.
func (s *Store) RoomCandles(pair, timeframe string) []model.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[pair]
	if !ok {
		return []model.Candle{}
	}
	series := r.candles[timeframe]
	out := make([]model.Candle, len(series))
	copy(out, series)
	return out
}

// ActiveRooms returns the pairs that currently have at least one
// subscriber, sorted for stable output.
func (s *Store) ActiveRooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0)
	for pair, r := range s.rooms {
		if len(r.subscribers) > 0 {
			out = append(out, pair)
		}
	}
	sort.Strings(out)
	return out
}

// SubscriberCount returns the number of subscribers in a room, 0 for
// unknown pairs.
func (s *Store) SubscriberCount(pair string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[pair]
	if !ok {
		return 0
	}
	return len(r.subscribers)
}

// RoomCount returns the number of rooms ever created.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Stats returns cumulative counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for _, r := range s.rooms {
		if len(r.subscribers) > 0 {
			active++
		}
	}

	return Stats{
		Rooms:           len(s.rooms),
		ActiveRooms:     active,
		Transactions:    s.txApplied,
		Candles:         s.candlesApplied,
		MetricsUpdates:  s.metricsApplied,
		PriceUpdates:    s.pricesApplied,
		GlobalLogLength: s.all.len(),
	}
}
