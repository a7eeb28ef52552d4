package trader

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/assist-by/halcyon/internal/domain"
)

// allOrdersLimit은 체결 이력 조회 시 가져올 최근 주문 개수입니다
const allOrdersLimit = 100

// refresh는 한 사이클에서 사용할 모든 시장/계정 데이터를 갱신합니다.
// 포지션 여부는 항상 거래소 잔고에서 다시 계산합니다.
func (t *Trader) refresh(ctx context.Context) error {
	balances, err := t.exchange.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("잔고 조회 실패: %w", err)
	}
	t.baseBalance = balances[t.symbolInfo.BaseAsset].Available
	t.isLong = determinePosition(t.baseBalance, t.symbolInfo.StepSize)

	candles, err := t.exchange.GetKlines(ctx, t.settings.Symbol, t.settings.Interval, t.settings.CandleLimit)
	if err != nil {
		return fmt.Errorf("캔들 데이터 조회 실패: %w", err)
	}
	if len(candles) == 0 {
		return ErrNoCandleData
	}
	t.candles = candles

	openOrders, err := t.exchange.GetOpenOrders(ctx, t.settings.Symbol)
	if err != nil {
		return fmt.Errorf("미체결 주문 조회 실패: %w", err)
	}
	t.openOrders = openOrders

	// 주문 이력은 한 번만 조회해 양방향 체결가를 모두 추출한다
	history, err := t.exchange.GetAllOrders(ctx, t.settings.Symbol, allOrdersLimit)
	if err != nil {
		log.Printf("[%s] 주문 이력 조회 실패: %v", t.settings.Symbol, err)
		history = nil
	}
	t.lastBuyPrice = lastFilledPrice(history, domain.Buy)
	t.lastSellPrice = lastFilledPrice(history, domain.Sell)

	// 포지션이 없으면 익절 단계를 처음부터 다시 시작
	if !t.isLong {
		t.takeProfitIndex = 0
	}

	return nil
}

// lastFilledPrice는 주문 이력에서 해당 방향의 가장 최근 체결 주문을 찾아
// 평균 체결 가격을 반환합니다. 체결 이력이 없으면 0을 반환합니다.
func lastFilledPrice(orders []domain.Order, side domain.OrderSide) float64 {
	// 주문 목록은 오래된 순이므로 뒤에서부터 탐색
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if o.Side == side && o.Status == domain.OrderFilled {
			return o.AvgFillPrice()
		}
	}
	return 0
}

// logSnapshot은 현재 포지션과 잔고 상태를 로깅합니다
func (t *Trader) logSnapshot() {
	position := "무포지션"
	if t.isLong {
		position = "포지션 보유"
	}

	last, _ := t.candles.GetLastCandle()
	log.Printf("[%s] %s | 잔고: %.8f %s | 종가: %.8f | 최근 매수가: %.8f | 최근 매도가: %.8f",
		t.settings.Symbol, position, t.baseBalance, t.symbolInfo.BaseAsset,
		last.Close, t.lastBuyPrice, t.lastSellPrice)
}

// withRetry는 재시도 로직을 구현한 래퍼 함수입니다
func (t *Trader) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := t.retry.BaseDelay

	for attempt := 0; attempt <= t.retry.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := fn(); err != nil {
				lastErr = err

				if attempt == t.retry.MaxRetries {
					return fmt.Errorf("최대 재시도 횟수 초과: %w", lastErr)
				}

				log.Printf("[%s] %s 실패 (attempt %d/%d): %v",
					t.settings.Symbol, operation, attempt+1, t.retry.MaxRetries, err)

				// 다음 재시도 전 대기
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
					// 대기 시간을 증가시키되, 최대 대기 시간을 넘지 않도록 함
					delay = time.Duration(float64(delay) * t.retry.Factor)
					if delay > t.retry.MaxDelay {
						delay = t.retry.MaxDelay
					}
				}
				continue
			}
			return nil
		}
	}
	return lastErr
}

// pause는 컨텍스트 취소를 존중하며 지정된 시간만큼 대기합니다
func (t *Trader) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
