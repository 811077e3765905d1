package usecase

import "backtest_server/internal/domain"

// IndicatorPoint is one value of an overlay series, keyed by candle
// timestamp.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// CalculateSMA computes a simple moving average of closes. The series
// starts at the first candle with a full window.
func CalculateSMA(candles []domain.Candle, period int) []IndicatorPoint {
	if period <= 0 || len(candles) < period {
		return nil
	}

	out := make([]IndicatorPoint, 0, len(candles)-period+1)
	var sum float64
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out = append(out, IndicatorPoint{Time: c.Timestamp, Value: sum / float64(period)})
		}
	}
	return out
}

// CalculateEMA computes an exponential moving average of closes, seeded
// with the SMA of the first window.
func CalculateEMA(candles []domain.Candle, period int) []IndicatorPoint {
	if period <= 0 || len(candles) < period {
		return nil
	}

	multiplier := 2 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += candles[i].Close
	}
	ema := sum / float64(period)

	out := make([]IndicatorPoint, 0, len(candles)-period+1)
	out = append(out, IndicatorPoint{Time: candles[period-1].Timestamp, Value: ema})

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
		out = append(out, IndicatorPoint{Time: candles[i].Timestamp, Value: ema})
	}
	return out
}
