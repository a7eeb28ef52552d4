// internal/indicator/sma.go
package indicator

import (
	"fmt"
	"math"
)

// SMAOption은 단순이동평균 계산에 필요한 옵션을 정의합니다
type SMAOption struct {
	Period int // 기간
}

// ValidateSMAOption은 SMA 옵션을 검증합니다
func ValidateSMAOption(opt SMAOption) error {
	if opt.Period < 1 {
		return &ValidationError{
			Field: "Period",
			Err:   fmt.Errorf("기간은 1 이상이어야 합니다: %d", opt.Period),
		}
	}
	return nil
}

// SMA는 종가의 단순이동평균을 계산합니다.
// 기간을 채우지 못한 앞 구간의 값은 math.NaN()으로 표시합니다.
func SMA(prices []PriceData, opt SMAOption) ([]Result, error) {
	values := make([]float64, len(prices))
	for i, p := range prices {
		values[i] = p.Close
	}
	return rollingMean(prices, values, opt)
}

// VolumeSMA는 거래량의 단순이동평균을 계산합니다
func VolumeSMA(prices []PriceData, opt SMAOption) ([]Result, error) {
	values := make([]float64, len(prices))
	for i, p := range prices {
		values[i] = p.Volume
	}
	return rollingMean(prices, values, opt)
}

// StdDev는 종가의 이동 표준편차(표본 기준)를 계산합니다
func StdDev(prices []PriceData, opt SMAOption) ([]Result, error) {
	if err := ValidateSMAOption(opt); err != nil {
		return nil, err
	}
	if opt.Period < 2 {
		return nil, &ValidationError{
			Field: "Period",
			Err:   fmt.Errorf("표준편차 계산에는 기간이 2 이상이어야 합니다: %d", opt.Period),
		}
	}
	if len(prices) < opt.Period {
		return nil, &ValidationError{
			Field: "prices",
			Err:   fmt.Errorf("가격 데이터가 부족합니다. 필요: %d, 현재: %d", opt.Period, len(prices)),
		}
	}

	results := make([]Result, len(prices))
	for i := range prices {
		if i < opt.Period-1 {
			results[i] = Result{Value: math.NaN(), Timestamp: prices[i].Time}
			continue
		}

		var sum float64
		for j := i - opt.Period + 1; j <= i; j++ {
			sum += prices[j].Close
		}
		mean := sum / float64(opt.Period)

		var sqSum float64
		for j := i - opt.Period + 1; j <= i; j++ {
			diff := prices[j].Close - mean
			sqSum += diff * diff
		}
		results[i] = Result{
			Value:     math.Sqrt(sqSum / float64(opt.Period-1)),
			Timestamp: prices[i].Time,
		}
	}
	return results, nil
}

func rollingMean(prices []PriceData, values []float64, opt SMAOption) ([]Result, error) {
	if err := ValidateSMAOption(opt); err != nil {
		return nil, err
	}
	if len(values) < opt.Period {
		return nil, &ValidationError{
			Field: "prices",
			Err:   fmt.Errorf("가격 데이터가 부족합니다. 필요: %d, 현재: %d", opt.Period, len(values)),
		}
	}

	results := make([]Result, len(values))

	// 슬라이딩 윈도우 합계로 계산
	var windowSum float64
	for i, v := range values {
		windowSum += v
		if i >= opt.Period {
			windowSum -= values[i-opt.Period]
		}

		if i < opt.Period-1 {
			results[i] = Result{Value: math.NaN(), Timestamp: prices[i].Time}
			continue
		}
		results[i] = Result{
			Value:     windowSum / float64(opt.Period),
			Timestamp: prices[i].Time,
		}
	}
	return results, nil
}
