package trader

import (
	"context"
	"fmt"
	"log"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/strategy"
)

// Execute는 한 번의 매매 사이클을 수행합니다.
//
// 사이클은 항상 같은 순서로 진행됩니다: 데이터 갱신, 손절 검사,
// 익절 검사, 전략 판단, 미체결 주문 정리, 주문 실행. 손절과 익절은
// 전략 판단보다 우선하며, 발동한 사이클에서는 새 주문을 내지 않습니다.
//
// 거래소 호출 실패는 복구 가능한 문제로 간주하고 로깅 후 다음 사이클로
// 넘어갑니다. 전략 설정 오류처럼 반복해도 해소되지 않는 문제만 에러로
// 반환하여 이 심볼의 매매 루프를 중단시킵니다.
func (t *Trader) Execute(ctx context.Context) error {
	t.nextWait = t.settings.BaseInterval

	if err := t.withRetry(ctx, "시장 데이터 갱신", func() error {
		return t.refresh(ctx)
	}); err != nil {
		log.Printf("[%s] 시장 데이터 갱신 실패, 이번 사이클 건너뜀: %v", t.settings.Symbol, err)
		t.notifyError(fmt.Errorf("[%s] 시장 데이터 갱신 실패: %w", t.settings.Symbol, err))
		return nil
	}

	t.logSnapshot()

	if triggered, err := t.stopLossTriggered(ctx); triggered || err != nil {
		if err != nil {
			log.Printf("[%s] 손절 처리 중 에러: %v", t.settings.Symbol, err)
			t.notifyError(err)
		}
		return nil
	}

	if t.isLong {
		if triggered, err := t.takeProfitTriggered(ctx); triggered || err != nil {
			if err != nil {
				log.Printf("[%s] 익절 처리 중 에러: %v", t.settings.Symbol, err)
				t.notifyError(err)
			}
			return nil
		}
	}

	decision, err := t.voter.Vote(t.candles)
	if err != nil {
		return fmt.Errorf("[%s] 전략 판단 실패: %w", t.settings.Symbol, err)
	}
	log.Printf("[%s] 전략 판단: %s", t.settings.Symbol, decision)

	// 같은 방향의 미체결 주문이 남아 있으면 취소하고 새로 주문한다.
	// 부분 체결 수량은 집계해 두었다가 다음 매수 주문에서 차감한다.
	switch decision {
	case strategy.Buy:
		if t.reconcileOpenOrders(domain.Buy) {
			if err := t.cancelAllOrders(ctx); err != nil {
				log.Printf("[%s] 미체결 매수 주문 정리 실패: %v", t.settings.Symbol, err)
				t.notifyError(err)
				return nil
			}
			t.pause(ctx, t.settleDelay)
		}
	case strategy.Sell:
		if t.reconcileOpenOrders(domain.Sell) {
			if err := t.cancelAllOrders(ctx); err != nil {
				log.Printf("[%s] 미체결 매도 주문 정리 실패: %v", t.settings.Symbol, err)
				t.notifyError(err)
				return nil
			}
			t.pause(ctx, t.settleDelay)
		}
	}

	switch {
	case decision == strategy.Buy && !t.isLong:
		order, err := t.buyLimitedOrder(ctx)
		if err != nil {
			log.Printf("[%s] 매수 주문 실패: %v", t.settings.Symbol, err)
			t.notifyError(err)
			return nil
		}
		t.afterOrder(ctx, order, "전략 매수")

	case decision == strategy.Sell && t.isLong:
		order, err := t.sellLimitedOrder(ctx)
		if err != nil {
			log.Printf("[%s] 매도 주문 실패: %v", t.settings.Symbol, err)
			t.notifyError(err)
			return nil
		}
		t.afterOrder(ctx, order, "전략 매도")
	}

	return nil
}

// afterOrder는 주문 직후의 공통 처리를 수행합니다. 거래소 반영을
// 기다린 뒤 상태를 다시 읽고, 다음 사이클을 짧은 간격으로 당깁니다.
func (t *Trader) afterOrder(ctx context.Context, order *domain.Order, reason string) {
	t.pause(ctx, t.settleDelay)

	if err := t.refresh(ctx); err != nil {
		log.Printf("[%s] 주문 후 데이터 갱신 실패: %v", t.settings.Symbol, err)
	}

	t.nextWait = t.settings.PostOrderDelay
	t.notifyTrade(order, reason)
}
