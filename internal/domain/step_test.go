package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustToStep(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		want  float64
	}{
		{name: "수량을 step 단위로 내림", value: 0.123456, step: 0.001, want: 0.123},
		{name: "이미 step의 배수인 값", value: 0.5, step: 0.001, want: 0.5},
		{name: "step보다 작은 값은 0", value: 0.0004, step: 0.001, want: 0},
		{name: "정수 step", value: 153.7, step: 1, want: 153},
		{name: "가격을 tick 단위로 내림", value: 98765.4321, step: 0.01, want: 98765.43},
		{name: "부동소수점 오차 보정", value: 0.3, step: 0.1, want: 0.3},
		{name: "10의 거듭제곱이 아닌 step", value: 0.09, step: 0.025, want: 0.075},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustToStep(tt.value, tt.step)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			// 결과는 입력을 넘지 않고, step의 배수여야 한다
			assert.LessOrEqual(t, got, tt.value)
			ratio := got / tt.step
			assert.InDelta(t, math.Round(ratio), ratio, 1e-9)
		})
	}
}

func TestAdjustToStepInvalidStep(t *testing.T) {
	_, err := AdjustToStep(1.0, 0)
	assert.Error(t, err)

	_, err = AdjustToStep(1.0, -0.01)
	assert.Error(t, err)
}

func TestFormatToStep(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		want  string
	}{
		{name: "step 자릿수에 맞춘 포맷", value: 0.123456, step: 0.001, want: "0.123"},
		{name: "뒤에 0 채움", value: 0.5, step: 0.001, want: "0.500"},
		{name: "아주 작은 step도 지수 표기 없이", value: 0.000015, step: 0.00001, want: "0.00001"},
		{name: "정수 step", value: 42.9, step: 1, want: "42"},
		{name: "10의 거듭제곱이 아닌 step", value: 0.09, step: 0.025, want: "0.075"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatToStep(tt.value, tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepPrecision(t *testing.T) {
	assert.Equal(t, 0, StepPrecision(1))
	assert.Equal(t, 0, StepPrecision(10))
	assert.Equal(t, 1, StepPrecision(0.1))
	assert.Equal(t, 3, StepPrecision(0.001))
	assert.Equal(t, 8, StepPrecision(0.00000001))
	assert.Equal(t, 3, StepPrecision(0.025))
	assert.Equal(t, 1, StepPrecision(2.5))
	assert.Equal(t, 0, StepPrecision(0))
}
