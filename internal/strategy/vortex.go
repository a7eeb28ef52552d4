// internal/strategy/vortex.go
package strategy

import (
	"math"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
)

// VortexStrategy는 Vortex 지표 기반 추세 추종 전략입니다.
// VI+가 VI-보다 크면 매수, 작으면 매도입니다.
func VortexStrategy(candles domain.CandleList, params Params) (Decision, error) {
	window := int(params.GetOr("window", 14))

	prices := indicator.ConvertCandlesToPriceData(candles)
	if len(prices) <= window {
		return Inconclusive, nil
	}

	results, err := indicator.Vortex(prices, indicator.VortexOption{Period: window})
	if err != nil {
		return Inconclusive, err
	}

	last := results[len(results)-1]
	if math.IsNaN(last.Plus) || math.IsNaN(last.Minus) {
		return Inconclusive, nil
	}

	if last.Plus > last.Minus {
		return Buy, nil
	}
	if last.Plus < last.Minus {
		return Sell, nil
	}
	return Inconclusive, nil
}
