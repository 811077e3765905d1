package domain

import "sort"

// Candle is a single OHLCV bar. Timestamps are unix seconds, unique and
// strictly increasing within a loaded series.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// NormalizeCandles sorts ascending by timestamp and drops duplicates,
// keeping the last record for each timestamp. The session core assumes
// its input series already satisfies this invariant, so it is enforced
// once at the boundary where candles enter the system.
func NormalizeCandles(candles []Candle) []Candle {
	if len(candles) == 0 {
		return nil
	}

	byTime := make(map[int64]Candle, len(candles))
	for _, c := range candles {
		byTime[c.Timestamp] = c
	}

	out := make([]Candle, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})

	return out
}
