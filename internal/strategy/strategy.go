package strategy

import (
	"fmt"

	"github.com/assist-by/halcyon/internal/domain"
)

// Decision은 전략의 3단계 판단 결과를 정의합니다
type Decision int

const (
	Inconclusive Decision = iota // 판단 불가 (포지션 유지)
	Buy                          // 매수
	Sell                         // 매도
)

// String은 Decision의 문자열 표현을 반환합니다
func (d Decision) String() string {
	switch d {
	case Buy:
		return "매수"
	case Sell:
		return "매도"
	default:
		return "보류"
	}
}

// Params는 전략별 숫자 파라미터 집합입니다
type Params map[string]float64

// GetOr는 파라미터 값을 반환하고, 없으면 기본값을 반환합니다
func (p Params) GetOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Func는 캔들 데이터를 분석하여 매매 판단을 내리는 전략 함수입니다.
// 데이터 부족 등 판단할 수 없는 상황은 Inconclusive를 반환하고,
// 잘못된 파라미터처럼 복구할 수 없는 문제만 에러로 반환합니다.
type Func func(candles domain.CandleList, params Params) (Decision, error)

// ID는 구현된 전략의 식별자를 정의합니다
type ID string

const (
	MovingAverage             ID = "moving_average"
	MovingAverageAnticipation ID = "moving_average_anticipation"
	RSIPeaksValleys           ID = "rsi"
	VortexCross               ID = "vortex"
	MARSIVolume               ID = "ma_rsi_volume"
)

// Resolve는 전략 ID에 해당하는 전략 함수를 반환합니다.
// 구현된 전략 집합은 컴파일 타임에 닫혀 있습니다.
func Resolve(id ID) (Func, error) {
	switch id {
	case MovingAverage:
		return MovingAverageStrategy, nil
	case MovingAverageAnticipation:
		return MovingAverageAnticipationStrategy, nil
	case RSIPeaksValleys:
		return RSIStrategy, nil
	case VortexCross:
		return VortexStrategy, nil
	case MARSIVolume:
		return MARSIVolumeStrategy, nil
	default:
		return nil, fmt.Errorf("존재하지 않는 전략: %s", id)
	}
}

// Voter는 주 전략과 보조(fallback) 전략을 조합하여 최종 판단을 내립니다
type Voter struct {
	main            Func
	mainParams      Params
	fallback        Func
	fallbackParams  Params
	fallbackEnabled bool
}

// NewVoter는 새로운 Voter를 생성합니다.
// fallback 전략이 비활성화된 경우 fallbackID는 비워둘 수 있습니다.
func NewVoter(mainID ID, mainParams Params, fallbackID ID, fallbackParams Params, fallbackEnabled bool) (*Voter, error) {
	main, err := Resolve(mainID)
	if err != nil {
		return nil, fmt.Errorf("주 전략 생성 실패: %w", err)
	}

	v := &Voter{
		main:            main,
		mainParams:      mainParams,
		fallbackEnabled: fallbackEnabled,
	}

	if fallbackEnabled {
		fallback, err := Resolve(fallbackID)
		if err != nil {
			return nil, fmt.Errorf("보조 전략 생성 실패: %w", err)
		}
		v.fallback = fallback
		v.fallbackParams = fallbackParams
	}

	return v, nil
}

// Vote는 주 전략을 실행하고, 판단이 보류되면 보조 전략을 실행합니다.
// 보조 전략은 fallback이 활성화된 경우에만 실행됩니다.
func (v *Voter) Vote(candles domain.CandleList) (Decision, error) {
	decision, err := v.main(candles, v.mainParams)
	if err != nil {
		return Inconclusive, fmt.Errorf("주 전략 실행 실패: %w", err)
	}

	if decision == Inconclusive && v.fallbackEnabled && v.fallback != nil {
		decision, err = v.fallback(candles, v.fallbackParams)
		if err != nil {
			return Inconclusive, fmt.Errorf("보조 전략 실행 실패: %w", err)
		}
	}

	return decision, nil
}
