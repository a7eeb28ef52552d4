// internal/strategy/rsi.go
package strategy

import (
	"math"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
)

// RSIStrategy는 RSI의 마지막 과매수/과매도 이벤트를 따르는 전략입니다.
// 가장 최근 이벤트가 과매도 진입(저점)이면 매수 상태를, 과매수 진입(고점)이면
// 매도 상태를 유지합니다. 두 이벤트가 모두 없으면 판단을 보류합니다.
func RSIStrategy(candles domain.CandleList, params Params) (Decision, error) {
	low := params.GetOr("low", 30)
	high := params.GetOr("high", 70)
	window := int(params.GetOr("window", 14))

	prices := indicator.ConvertCandlesToPriceData(candles)
	if len(prices) <= window {
		return Inconclusive, nil
	}

	results, err := indicator.RSI(prices, indicator.RSIOption{Period: window})
	if err != nil {
		return Inconclusive, err
	}

	// 마지막 고점(RSI > high)과 저점(RSI < low)의 위치를 찾는다
	lastPeak, lastValley := -1, -1
	for i, r := range results {
		if math.IsNaN(r.Value) {
			continue
		}
		if r.Value > high {
			lastPeak = i
		}
		if r.Value < low {
			lastValley = i
		}
	}

	switch {
	case lastValley >= 0 && (lastPeak < 0 || lastValley > lastPeak):
		// 마지막 이벤트가 저점: 아직 고점에 도달하지 않았으므로 매수 유지
		return Buy, nil
	case lastPeak >= 0 && (lastValley < 0 || lastPeak > lastValley):
		// 마지막 이벤트가 고점: 아직 저점까지 떨어지지 않았으므로 매도 유지
		return Sell, nil
	default:
		return Inconclusive, nil
	}
}
