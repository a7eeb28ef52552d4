// internal/strategy/moving_average.go
package strategy

import (
	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
)

// MovingAverageStrategy는 단순 이동평균 교차 전략입니다.
// 빠른 이동평균이 느린 이동평균 위에 있으면 매수, 아래에 있으면 매도입니다.
func MovingAverageStrategy(candles domain.CandleList, params Params) (Decision, error) {
	fast := int(params.GetOr("fast_window", 7))
	slow := int(params.GetOr("slow_window", 40))

	prices := indicator.ConvertCandlesToPriceData(candles)

	// 느린 이동평균의 워밍업 구간을 제외하고도 slow개 이상 남아야 판단
	if len(prices) < fast || len(prices)-(slow-1) < slow {
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

	lastFast := fastMA[len(fastMA)-1].Value
	lastSlow := slowMA[len(slowMA)-1].Value

	if lastFast > lastSlow {
		return Buy, nil
	}
	return Sell, nil
}
