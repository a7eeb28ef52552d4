// internal/strategy/moving_average_anticipation.go
package strategy

import (
	"math"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
)

// MovingAverageAnticipationStrategy는 이동평균 교차를 선행 포착하는 전략입니다.
// 두 이동평균의 간격이 변동성 대비 충분히 좁혀졌을 때, 기울기 방향으로
// 교차를 앞질러 판단합니다.
//   - 간격 < 변동성 × volatility_factor 일 때만 판단
//   - 빠른 기울기가 양수이고 느린 기울기보다 가파르면 매수
//   - 빠른 기울기가 음수이고 느린 기울기보다 가파르게 하락하면 매도
func MovingAverageAnticipationStrategy(candles domain.CandleList, params Params) (Decision, error) {
	fast := int(params.GetOr("fast_window", 7))
	slow := int(params.GetOr("slow_window", 40))
	factor := params.GetOr("volatility_factor", 0.5)

	prices := indicator.ConvertCandlesToPriceData(candles)

	if len(prices) < fast || len(prices)-(slow-1) < slow || len(prices) < 3 {
		return Inconclusive, nil
	}

	fastMA, err := indicator.SMA(prices, indicator.SMAOption{Period: fast})
	if err != nil {
		return Inconclusive, err
	}
	slowMA, err := indicator.SMA(prices, indicator.SMAOption{Period: slow})
	if err != nil {
		return Inconclusive, err
	}
	// 변동성은 느린 이동평균과 같은 기간의 표준편차를 사용
	volatility, err := indicator.StdDev(prices, indicator.SMAOption{Period: slow})
	if err != nil {
		return Inconclusive, err
	}

	n := len(prices)
	lastFast := fastMA[n-1].Value
	prevFast := fastMA[n-3].Value
	lastSlow := slowMA[n-1].Value
	prevSlow := slowMA[n-3].Value
	lastVolatility := volatility[n-2].Value

	if math.IsNaN(prevFast) || math.IsNaN(prevSlow) || math.IsNaN(lastVolatility) {
		return Inconclusive, nil
	}

	fastGradient := lastFast - prevFast
	slowGradient := lastSlow - prevSlow
	currentDifference := math.Abs(lastFast - lastSlow)

	if currentDifference < lastVolatility*factor {
		if fastGradient > 0 && fastGradient > slowGradient {
			return Buy, nil
		}
		if fastGradient < 0 && fastGradient < slowGradient {
			return Sell, nil
		}
	}
	return Inconclusive, nil
}
