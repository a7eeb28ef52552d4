// internal/indicator/rsi.go
package indicator

import (
	"fmt"
	"math"
)

// RSIOption은 RSI 계산에 필요한 옵션을 정의합니다
type RSIOption struct {
	Period int // 기간 (보통 14)
}

// ValidateRSIOption은 RSI 옵션을 검증합니다
func ValidateRSIOption(opt RSIOption) error {
	if opt.Period < 1 {
		return &ValidationError{
			Field: "Period",
			Err:   fmt.Errorf("기간은 1 이상이어야 합니다: %d", opt.Period),
		}
	}
	return nil
}

// RSI는 Wilder 방식의 Relative Strength Index를 계산합니다.
// 첫 Period 구간은 SMA로 초기화하고 이후는 Wilder EMA로 평활합니다.
// 계산 불가 구간(앞의 Period개)은 math.NaN()으로 표시합니다.
func RSI(prices []PriceData, opt RSIOption) ([]Result, error) {
	if err := ValidateRSIOption(opt); err != nil {
		return nil, err
	}
	if len(prices) <= opt.Period {
		return nil, &ValidationError{
			Field: "prices",
			Err:   fmt.Errorf("가격 데이터가 부족합니다. 필요: %d+1, 현재: %d", opt.Period, len(prices)),
		}
	}

	p := opt.Period
	results := make([]Result, len(prices))

	// 첫 p개의 변동분 합산 (SMA 초기화)
	sumGain, sumLoss := 0.0, 0.0
	for i := 1; i <= p; i++ {
		delta := prices[i].Close - prices[i-1].Close
		if delta > 0 {
			sumGain += delta
		} else {
			sumLoss += -delta
		}
	}
	avgGain, avgLoss := sumGain/float64(p), sumLoss/float64(p)
	results[p] = Result{Value: toRSI(avgGain, avgLoss), Timestamp: prices[p].Time}

	// 이후 구간은 Wilder EMA 방식
	for i := p + 1; i < len(prices); i++ {
		delta := prices[i].Close - prices[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		results[i] = Result{Value: toRSI(avgGain, avgLoss), Timestamp: prices[i].Time}
	}

	// 앞 구간은 NaN 표시
	for i := 0; i < p; i++ {
		results[i] = Result{Value: math.NaN(), Timestamp: prices[i].Time}
	}
	return results, nil
}

// LastRSI는 가장 최근 캔들의 RSI 값만 반환합니다
func LastRSI(prices []PriceData, opt RSIOption) (float64, error) {
	results, err := RSI(prices, opt)
	if err != nil {
		return 0, err
	}
	return results[len(results)-1].Value, nil
}

func toRSI(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50 // 완전 횡보
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}
