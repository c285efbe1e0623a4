package classify

import (
	"bytes"
	"encoding/json"
)

// Kind identifies the shape of a decoded feed message.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransaction
	KindPeriodMetrics
	KindPrice
	KindCandle
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindPeriodMetrics:
		return "period_metrics"
	case KindPrice:
		return "price"
	case KindCandle:
		return "candle"
	default:
		return "unknown"
	}
}

// Fields is a single-level decode of a feed frame, used for
// field-presence checks before committing to a typed parse.
type Fields map[string]json.RawMessage

// Decode parses a raw frame into Fields. Frames that are not JSON
// objects (arrays, scalars, malformed text) return an error.
func Decode(data []byte) (Fields, error) {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// defined reports whether the key is present with a non-null value.
func (f Fields) defined(key string) bool {
	v, ok := f[key]
	if !ok {
		return false
	}
	return !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Classify tags a decoded frame by structural field presence. The feed
// carries no envelope type field, so the shape is the routing key. The
// predicate order matters: a candle frame carries token_pair and
// timeframe like a metrics frame, and is only told apart by the
// absence of price_change, so earlier rules must claim their
// distinguishing fields first.
func Classify(f Fields) Kind {
	switch {
	case f.defined("purchase_type") && f.defined("token_pair"):
		return KindTransaction

	case f.defined("timeframe") && f.defined("token_pair") && f.defined("price_change"):
		return KindPeriodMetrics

	case f.defined("token_pair") && f.defined("timeframe") && f.defined("timestamp") &&
		f.defined("open") && f.defined("high") && f.defined("low") &&
		f.defined("close") && f.defined("volume"):
		return KindCandle

	case f.defined("usd_current_price") && f.defined("sol_relative_price"):
		// A price update without a pair has no room to land in.
		if !f.defined("token_pair") {
			return KindUnknown
		}
		return KindPrice

	default:
		return KindUnknown
	}
}
