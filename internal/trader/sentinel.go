package trader

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/assist-by/halcyon/internal/domain"
)

// stopLossTriggered는 손절 조건을 검사하고, 충족 시 전량 시장가 매도합니다.
// 일시적인 급락에 휘둘리지 않도록 최근 두 캔들의 종가가 모두
// 손절선 아래로 내려왔을 때만 발동합니다.
func (t *Trader) stopLossTriggered(ctx context.Context) (bool, error) {
	if !t.isLong || t.lastBuyPrice <= 0 || t.stopLoss <= 0 {
		return false, nil
	}
	if len(t.candles) < 2 {
		return false, nil
	}

	stopPrice := t.lastBuyPrice * (1 - t.stopLoss)
	last := t.candles[len(t.candles)-1].Close
	prev := t.candles[len(t.candles)-2].Close

	if last >= stopPrice || prev >= stopPrice {
		return false, nil
	}

	log.Printf("[%s] 손절 발동: 손절선 %.8f, 종가 %.8f / %.8f",
		t.settings.Symbol, stopPrice, prev, last)

	// 체결을 방해할 수 있는 미체결 주문부터 정리
	if err := t.cancelAllOrders(ctx); err != nil {
		return true, fmt.Errorf("손절 전 주문 취소 실패: %w", err)
	}
	t.pause(ctx, t.settleDelay)

	order, err := t.sellMarketOrder(ctx, 0)
	if err != nil {
		return true, fmt.Errorf("손절 매도 실패: %w", err)
	}

	t.notifyTrade(order, fmt.Sprintf("손절 (기준가 %.8f)", stopPrice))
	return true, nil
}

// takeProfitTriggered는 현재 단계의 익절 조건을 검사하고,
// 충족 시 설정된 비율만큼 시장가 매도합니다. 매도 주문이 전량
// 체결된 경우에만 다음 익절 단계로 넘어갑니다.
func (t *Trader) takeProfitTriggered(ctx context.Context) (bool, error) {
	if !t.isLong || t.lastBuyPrice <= 0 {
		return false, nil
	}
	if t.takeProfitIndex >= len(t.settings.TakeProfitAt) {
		return false, nil
	}

	triggerPct := t.settings.TakeProfitAt[t.takeProfitIndex]
	if triggerPct <= 0 {
		return false, nil
	}

	last := t.candles[len(t.candles)-1].Close
	variation := (last - t.lastBuyPrice) / t.lastBuyPrice * 100

	if round2(variation) < round2(triggerPct) {
		return false, nil
	}

	stage := t.takeProfitIndex + 1
	amountPct := t.settings.TakeProfitAmount[t.takeProfitIndex]
	quantity := t.baseBalance * amountPct / 100

	log.Printf("[%s] 익절 발동 (단계 %d): 상승폭 %.2f%% >= %.2f%%, 매도 비율 %.0f%%",
		t.settings.Symbol, stage, variation, triggerPct, amountPct)

	order, err := t.sellMarketOrder(ctx, quantity)
	if err != nil {
		return true, fmt.Errorf("익절 매도 실패: %w", err)
	}

	// 전량 체결을 확인한 경우에만 단계를 올린다. 부분 체결로 끝났다면
	// 다음 사이클에서 같은 단계를 다시 시도한다.
	if order.Status == domain.OrderFilled {
		t.takeProfitIndex++
	}

	t.notifyTrade(order, fmt.Sprintf("익절 %d단계 (+%.2f%%)", stage, variation))
	return true, nil
}

// round2는 소수점 둘째 자리까지 반올림합니다
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
