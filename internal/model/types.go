package model

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Transaction is one executed trade as delivered by the feed.
// Immutable once received.
type Transaction struct {
	Date          string   `json:"date"`
	Side          Side     `json:"purchase_type"`
	USDValue      *float64 `json:"usd_value"` // nil when the feed has no USD quote
	TokenQuantity float64  `json:"token_quantity"`
	TokenPrice    float64  `json:"token_price"`
	Owner         string   `json:"owner"`
	DexType       string   `json:"dex_type"`
	DexTag        string   `json:"dex_tag"`
	TokenPair     string   `json:"token_pair"`
	TokenName     string   `json:"token_name"`
}

// Candle is one OHLCV bucket, keyed by (pair, timeframe, timestamp).
type Candle struct {
	TokenPair  string  `json:"token_pair"`
	Timeframe  string  `json:"timeframe"`
	Timestamp  int64   `json:"timestamp"` // ms since epoch
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`
	TradeCount int64   `json:"trade_count,omitempty"`
}

// PeriodStats are rolling aggregate trade statistics for one lookback window.
type PeriodStats struct {
	Txns       int64   `json:"txns"`
	Volume     float64 `json:"volume"`
	Makers     int64   `json:"makers"`
	Buys       int64   `json:"buys"`
	Sells      int64   `json:"sells"`
	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`
	Buyers     int64   `json:"buyers"`
	Sellers    int64   `json:"sellers"`
}

// PeriodMetrics holds the price-change percentage and optional stats
// for one lookback period.
type PeriodMetrics struct {
	PriceChange float64      `json:"price_change"`
	Stats       *PeriodStats `json:"stats,omitempty"`
}

// Metrics is a room's current metrics snapshot: one entry per lookback
// period plus the last-known prices.
type Metrics struct {
	Periods  map[string]PeriodMetrics `json:"periods"` // keyed "5m", "1h", "6h", "24h"
	PriceUSD float64                  `json:"price_usd"`
	PriceSOL float64                  `json:"price_sol"`
}

// Timeframes are the candle timeframe labels accepted on the wire.
var Timeframes = []string{"1s", "1m", "5m", "15m", "1h", "4h", "1d", "1w"}

// ValidTimeframe reports whether tf is a known candle timeframe label.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// Periods are the metric period labels, in display order.
var Periods = []string{"5m", "1h", "6h", "24h"}

// periodNames maps wire-level period names to metric period labels.
var periodNames = map[string]string{
	"FiveMins":        "5m",
	"OneHour":         "1h",
	"SixHours":        "6h",
	"TwentyFourHours": "24h",
}

// NormalizePeriod converts a wire period name ("FiveMins") to its label
// ("5m"). Already-normalized labels pass through unchanged.
func NormalizePeriod(name string) (string, bool) {
	if label, ok := periodNames[name]; ok {
		return label, true
	}
	for _, p := range Periods {
		if p == name {
			return p, true
		}
	}
	return "", false
}
