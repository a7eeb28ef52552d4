// internal/indicator/vortex.go
package indicator

import (
	"fmt"
	"math"
	"time"
)

// VortexOption은 Vortex 지표 계산에 필요한 옵션을 정의합니다
type VortexOption struct {
	Period int // 기간 (보통 14)
}

// VortexResult는 Vortex 지표 계산 결과를 정의합니다
type VortexResult struct {
	Plus      float64   // VI+ (상승 추세 강도)
	Minus     float64   // VI- (하락 추세 강도)
	Timestamp time.Time // 계산 시점
}

// ValidateVortexOption은 Vortex 옵션을 검증합니다
func ValidateVortexOption(opt VortexOption) error {
	if opt.Period < 1 {
		return &ValidationError{
			Field: "Period",
			Err:   fmt.Errorf("기간은 1 이상이어야 합니다: %d", opt.Period),
		}
	}
	return nil
}

// Vortex는 Vortex 지표(VI+, VI-)를 계산합니다.
// 이전 캔들이 필요하므로 계산 불가 구간(앞의 Period개)은 math.NaN()으로 표시합니다.
func Vortex(prices []PriceData, opt VortexOption) ([]VortexResult, error) {
	if err := ValidateVortexOption(opt); err != nil {
		return nil, err
	}
	if len(prices) <= opt.Period {
		return nil, &ValidationError{
			Field: "prices",
			Err:   fmt.Errorf("가격 데이터가 부족합니다. 필요: %d+1, 현재: %d", opt.Period, len(prices)),
		}
	}

	n := len(prices)
	tr := make([]float64, n)
	vmPlus := make([]float64, n)
	vmMinus := make([]float64, n)

	// True Range와 방향 운동량 계산 (인덱스 0은 이전 캔들이 없어 제외)
	for i := 1; i < n; i++ {
		highLow := math.Abs(prices[i].High - prices[i].Low)
		highClose := math.Abs(prices[i].High - prices[i-1].Close)
		lowClose := math.Abs(prices[i].Low - prices[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))

		vmPlus[i] = math.Abs(prices[i].High - prices[i-1].Low)
		vmMinus[i] = math.Abs(prices[i].Low - prices[i-1].High)
	}

	results := make([]VortexResult, n)
	for i := 0; i < n; i++ {
		if i < opt.Period {
			results[i] = VortexResult{Plus: math.NaN(), Minus: math.NaN(), Timestamp: prices[i].Time}
			continue
		}

		var sumTR, sumVMPlus, sumVMMinus float64
		for j := i - opt.Period + 1; j <= i; j++ {
			sumTR += tr[j]
			sumVMPlus += vmPlus[j]
			sumVMMinus += vmMinus[j]
		}

		if sumTR == 0 {
			results[i] = VortexResult{Plus: math.NaN(), Minus: math.NaN(), Timestamp: prices[i].Time}
			continue
		}
		results[i] = VortexResult{
			Plus:      sumVMPlus / sumTR,
			Minus:     sumVMMinus / sumTR,
			Timestamp: prices[i].Time,
		}
	}
	return results, nil
}
