// internal/strategy/ma_rsi_volume.go
package strategy

import (
	"math"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
)

// MARSIVolumeStrategy는 이동평균 교차에 RSI와 거래량 확인을 더한 전략입니다.
//   - 매수: 빠른 MA > 느린 MA, RSI가 과매도 위, 거래량이 평균의 배수 이상
//   - 매도: 빠른 MA < 느린 MA 또는 RSI가 과매수 구간
//   - 그 외에는 판단 보류
func MARSIVolumeStrategy(candles domain.CandleList, params Params) (Decision, error) {
	fast := int(params.GetOr("fast_window", 7))
	slow := int(params.GetOr("slow_window", 40))
	rsiWindow := int(params.GetOr("rsi_window", 14))
	overbought := params.GetOr("rsi_overbought", 70)
	oversold := params.GetOr("rsi_oversold", 30)
	volumeMultiplier := params.GetOr("volume_multiplier", 1.5)

	prices := indicator.ConvertCandlesToPriceData(candles)

	if len(prices) < fast || len(prices) <= rsiWindow || len(prices)-(slow-1) < slow {
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
	rsi, err := indicator.RSI(prices, indicator.RSIOption{Period: rsiWindow})
	if err != nil {
		return Inconclusive, err
	}
	// 거래량 평균은 느린 이동평균과 같은 기간을 사용
	volumeAvg, err := indicator.VolumeSMA(prices, indicator.SMAOption{Period: slow})
	if err != nil {
		return Inconclusive, err
	}

	n := len(prices)
	lastFast := fastMA[n-1].Value
	lastSlow := slowMA[n-1].Value
	lastRSI := rsi[n-1].Value
	lastVolume := prices[n-1].Volume
	lastVolumeAvg := volumeAvg[n-1].Value

	if math.IsNaN(lastRSI) || math.IsNaN(lastVolumeAvg) {
		return Inconclusive, nil
	}

	buyCondition := lastFast > lastSlow &&
		lastRSI > oversold &&
		lastVolume > volumeMultiplier*lastVolumeAvg

	sellCondition := lastFast < lastSlow || lastRSI > overbought

	switch {
	case buyCondition:
		return Buy, nil
	case sellCondition:
		return Sell, nil
	default:
		return Inconclusive, nil
	}
}
