package room

import (
	"sort"

	"github.com/dexwatch/dexfeed/internal/model"
)

// upsertCandle merges c into a timestamp-ascending series. An entry
// with the same timestamp is replaced in place: the exchange revises
// the still-open bucket, and timestamp equality is the sole key for
// "same candle". Otherwise c is inserted at its sorted position, and
// the oldest entry is dropped once the series exceeds maxLen.
func upsertCandle(series []model.Candle, c model.Candle, maxLen int) []model.Candle {
	i := sort.Search(len(series), func(j int) bool {
		return series[j].Timestamp >= c.Timestamp
	})

	if i < len(series) && series[i].Timestamp == c.Timestamp {
		series[i] = c
		return series
	}

	series = append(series, model.Candle{})
	copy(series[i+1:], series[i:])
	series[i] = c

	if len(series) > maxLen {
		series = series[1:]
	}
	return series
}
