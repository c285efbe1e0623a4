// feedsim serves a simulated dex feed on a websocket endpoint so the
// dashboard can be run without the real upstream.
// Usage: go run ./cmd/feedsim --addr :3001 --interval 500ms
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dexwatch/dexfeed/internal/model"
)

var wallets = []string{"wallet1", "wallet2", "wallet3", "whale1", "bot7"}

// simulator produces random-walk market frames for a fixed set of
// token pairs.
type simulator struct {
	mu    sync.Mutex
	pairs []string
	price map[string]float64
	rng   *rand.Rand
}

func newSimulator(pairs []string) *simulator {
	price := make(map[string]float64, len(pairs))
	for i, pair := range pairs {
		price[pair] = 0.5 + float64(i)*1.3
	}

	return &simulator{
		pairs: pairs,
		price: price,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// nextFrame steps one pair's price and returns a single frame in one
// of the feed's four wire shapes.
func (s *simulator) nextFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := s.pairs[s.rng.Intn(len(s.pairs))]

	// Random walk with 1% volatility.
	p := s.price[pair]
	p *= 1 + (s.rng.Float64()-0.5)*0.02
	s.price[pair] = p

	var frame any
	switch roll := s.rng.Float64(); {
	case roll < 0.5:
		frame = s.transaction(pair, p)
	case roll < 0.8:
		frame = s.candle(pair, p)
	case roll < 0.9:
		frame = s.periodMetrics(pair)
	default:
		frame = s.priceUpdate(pair, p)
	}

	return json.Marshal(frame)
}

func (s *simulator) transaction(pair string, price float64) model.Transaction {
	side := model.SideBuy
	if s.rng.Float64() < 0.5 {
		side = model.SideSell
	}
	qty := 10 + s.rng.Float64()*990
	usd := qty * price

	return model.Transaction{
		Date:          time.Now().UTC().Format(time.RFC3339),
		Side:          side,
		USDValue:      &usd,
		TokenQuantity: qty,
		TokenPrice:    price,
		Owner:         wallets[s.rng.Intn(len(wallets))],
		DexType:       "raydium",
		DexTag:        "amm",
		TokenPair:     pair,
		TokenName:     strings.SplitN(pair, "/", 2)[0],
	}
}

func (s *simulator) candle(pair string, price float64) model.Candle {
	// Bucket to the current minute so repeated candles for the same
	// bucket exercise the dashboard's replace-by-timestamp path.
	bucket := time.Now().UTC().Truncate(time.Minute).UnixMilli()
	spread := price * 0.01

	buyVol := s.rng.Float64() * 5000
	sellVol := s.rng.Float64() * 5000

	return model.Candle{
		TokenPair:  pair,
		Timeframe:  "1m",
		Timestamp:  bucket,
		Open:       price - spread/2,
		High:       price + spread,
		Low:        price - spread,
		Close:      price,
		Volume:     buyVol + sellVol,
		BuyVolume:  buyVol,
		SellVolume: sellVol,
		TradeCount: int64(1 + s.rng.Intn(50)),
	}
}

// periodMetricsFrame matches the feed's period metrics wire shape.
type periodMetricsFrame struct {
	TokenPair   string             `json:"token_pair"`
	Timeframe   string             `json:"timeframe"`
	PriceChange float64            `json:"price_change"`
	PeriodStats *model.PeriodStats `json:"period_stats"`
}

// wirePeriods are the period names as the real feed spells them.
var wirePeriods = []string{"FiveMins", "OneHour", "SixHours", "TwentyFourHours"}

func (s *simulator) periodMetrics(pair string) periodMetricsFrame {
	period := wirePeriods[s.rng.Intn(len(wirePeriods))]
	buys := int64(1 + s.rng.Intn(200))
	sells := int64(1 + s.rng.Intn(200))
	buyVol := s.rng.Float64() * 100000
	sellVol := s.rng.Float64() * 100000

	return periodMetricsFrame{
		TokenPair:   pair,
		Timeframe:   period,
		PriceChange: (s.rng.Float64() - 0.5) * 20,
		PeriodStats: &model.PeriodStats{
			Txns:       buys + sells,
			Volume:     buyVol + sellVol,
			Makers:     1 + s.rng.Int63n(buys+sells),
			Buys:       buys,
			Sells:      sells,
			BuyVolume:  buyVol,
			SellVolume: sellVol,
			Buyers:     1 + s.rng.Int63n(buys),
			Sellers:    1 + s.rng.Int63n(sells),
		},
	}
}

// priceFrame matches the feed's price update wire shape.
type priceFrame struct {
	TokenPair        string  `json:"token_pair"`
	USDCurrentPrice  float64 `json:"usd_current_price"`
	SOLRelativePrice float64 `json:"sol_relative_price"`
}

func (s *simulator) priceUpdate(pair string, price float64) priceFrame {
	return priceFrame{
		TokenPair:        pair,
		USDCurrentPrice:  price,
		SOLRelativePrice: price / 150.0,
	}
}

func main() {
	addr := flag.String("addr", ":3001", "listen address")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between frames")
	pairsFlag := flag.String("pairs", "ABC/SOL,XYZ/SOL,DEF/SOL", "comma-separated token pairs")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	pairs := strings.Split(*pairsFlag, ",")
	sim := newSimulator(pairs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		logger.Info("client connected", "remote", conn.RemoteAddr().String())
		serveClient(ctx, conn, sim, *interval, logger)
		logger.Info("client disconnected", "remote", conn.RemoteAddr().String())
	})

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	logger.Info("feed simulator listening", "addr", *addr, "pairs", pairs, "interval", *interval)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// serveClient streams frames to one connection until it drops or the
// simulator shuts down.
func serveClient(ctx context.Context, conn *websocket.Conn, sim *simulator, interval time.Duration, logger *slog.Logger) {
	// Discard inbound frames so pings and close handshakes are handled.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulator shutting down"),
				time.Now().Add(time.Second),
			)
			return

		case <-ticker.C:
			frame, err := sim.nextFrame()
			if err != nil {
				logger.Error("marshal frame", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}
