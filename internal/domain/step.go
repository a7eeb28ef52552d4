package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StepPrecision은 step 값 자체의 소수점 자릿수를 반환합니다.
// 예: 0.001 -> 3, 0.025 -> 3, 0.01 -> 2, 정수 -> 0
func StepPrecision(step float64) int {
	if step <= 0 {
		return 0
	}
	// 10의 거듭제곱이 아닌 step도 정확히 다루기 위해
	// 십진수 표현의 지수에서 자릿수를 읽는다
	exp := decimal.NewFromFloat(step).Exponent()
	if exp >= 0 {
		return 0
	}
	return int(-exp)
}

// AdjustToStep은 값을 step의 배수로 내림 조정합니다.
// 거래소 필터(LOT_SIZE, PRICE_FILTER)를 만족시키기 위해 항상 내림만 사용합니다.
func AdjustToStep(value, step float64) (float64, error) {
	d, err := adjustDecimal(value, step)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// FormatToStep은 값을 step의 배수로 내림 조정한 뒤, step과 같은
// 소수점 자릿수를 가진 문자열로 반환합니다. 지수 표기는 사용하지 않습니다.
func FormatToStep(value, step float64) (string, error) {
	d, err := adjustDecimal(value, step)
	if err != nil {
		return "", err
	}
	return d.StringFixed(int32(StepPrecision(step))), nil
}

func adjustDecimal(value, step float64) (decimal.Decimal, error) {
	if step <= 0 {
		return decimal.Zero, fmt.Errorf("step은 0보다 커야 합니다: %v", step)
	}

	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)

	// floor(value/step) * step 후 step 자릿수로 반올림해 부동소수점 잔재를 제거
	adjusted := v.DivRound(s, 16).Floor().Mul(s)
	return adjusted.Round(int32(StepPrecision(step))), nil
}
