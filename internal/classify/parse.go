package classify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dexwatch/dexfeed/internal/model"
)

// Errors returned by the typed parsers.
var (
	ErrUnknownPeriod    = errors.New("unknown metric period")
	ErrUnknownTimeframe = errors.New("unknown candle timeframe")
)

// PeriodUpdate is a decoded period-metrics frame, normalized to the
// internal period label.
type PeriodUpdate struct {
	TokenPair string
	Period    string // "5m", "1h", "6h", "24h"
	Metrics   model.PeriodMetrics
}

// PriceUpdate is a decoded price frame.
type PriceUpdate struct {
	TokenPair string
	PriceUSD  float64
	PriceSOL  float64
}

// ParseTransaction decodes a frame already classified as KindTransaction.
func ParseTransaction(data []byte) (model.Transaction, error) {
	var tx model.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return model.Transaction{}, fmt.Errorf("parse transaction: %w", err)
	}
	return tx, nil
}

// periodMetricsWire is the wire shape of a period-metrics frame.
type periodMetricsWire struct {
	TokenPair   string             `json:"token_pair"`
	Timeframe   string             `json:"timeframe"` // "FiveMins", "OneHour", ...
	PriceChange float64            `json:"price_change"`
	PeriodStats *model.PeriodStats `json:"period_stats"`
}

// ParsePeriodMetrics decodes a frame already classified as
// KindPeriodMetrics and normalizes the wire period name.
func ParsePeriodMetrics(data []byte) (PeriodUpdate, error) {
	var wire periodMetricsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return PeriodUpdate{}, fmt.Errorf("parse period metrics: %w", err)
	}

	period, ok := model.NormalizePeriod(wire.Timeframe)
	if !ok {
		return PeriodUpdate{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, wire.Timeframe)
	}

	return PeriodUpdate{
		TokenPair: wire.TokenPair,
		Period:    period,
		Metrics: model.PeriodMetrics{
			PriceChange: wire.PriceChange,
			Stats:       wire.PeriodStats,
		},
	}, nil
}

// ParseCandle decodes a frame already classified as KindCandle.
func ParseCandle(data []byte) (model.Candle, error) {
	var c model.Candle
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Candle{}, fmt.Errorf("parse candle: %w", err)
	}
	if !model.ValidTimeframe(c.Timeframe) {
		return model.Candle{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, c.Timeframe)
	}
	return c, nil
}

// priceWire is the wire shape of a price frame.
type priceWire struct {
	TokenPair string  `json:"token_pair"`
	PriceUSD  float64 `json:"usd_current_price"`
	PriceSOL  float64 `json:"sol_relative_price"`
}

// ParsePrice decodes a frame already classified as KindPrice.
func ParsePrice(data []byte) (PriceUpdate, error) {
	var wire priceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return PriceUpdate{}, fmt.Errorf("parse price: %w", err)
	}
	return PriceUpdate{
		TokenPair: wire.TokenPair,
		PriceUSD:  wire.PriceUSD,
		PriceSOL:  wire.PriceSOL,
	}, nil
}
