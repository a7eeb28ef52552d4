package trader

import (
	"context"
	"fmt"
	"log"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/indicator"
	"github.com/assist-by/halcyon/internal/notification"
	"github.com/google/uuid"
)

// 지정가 휴리스틱 상수. 종가 대비 비율로 주문 가격을 보정합니다.
const (
	limitOffsetTight = 0.002 // 체결 우선 보정 (0.2%)
	limitOffsetWide  = 0.005 // 수익 우선 보정 (0.5%)

	heuristicRSIPeriod    = 14
	heuristicVolumePeriod = 20
)

// newClientOrderID는 추적 가능한 클라이언트 주문 ID를 생성합니다
func newClientOrderID() string {
	return "halcyon-" + uuid.NewString()[:28]
}

// buyMarketOrder는 시장가 매수 주문을 실행합니다.
// quantity가 0이면 설정된 기본 매수 수량을 사용합니다.
func (t *Trader) buyMarketOrder(ctx context.Context, quantity float64) (*domain.Order, error) {
	if t.isLong {
		return nil, NewOrderError(t.settings.Symbol, "시장가 매수", ErrAlreadyLong)
	}
	if quantity <= 0 {
		quantity = t.settings.Quantity
	}

	return t.placeOrder(ctx, "시장가 매수", domain.OrderRequest{
		Symbol:        t.settings.Symbol,
		Side:          domain.Buy,
		Type:          domain.Market,
		Quantity:      mustFormat(quantity, t.symbolInfo.StepSize),
		ClientOrderID: newClientOrderID(),
	})
}

// sellMarketOrder는 시장가 매도 주문을 실행합니다.
// quantity가 0이면 보유한 기초 자산 전량을 매도합니다.
func (t *Trader) sellMarketOrder(ctx context.Context, quantity float64) (*domain.Order, error) {
	if !t.isLong {
		return nil, NewOrderError(t.settings.Symbol, "시장가 매도", ErrAlreadyFlat)
	}
	if quantity <= 0 {
		quantity = t.baseBalance
	}

	return t.placeOrder(ctx, "시장가 매도", domain.OrderRequest{
		Symbol:        t.settings.Symbol,
		Side:          domain.Sell,
		Type:          domain.Market,
		Quantity:      mustFormat(quantity, t.symbolInfo.StepSize),
		ClientOrderID: newClientOrderID(),
	})
}

// buyLimitedOrder는 휴리스틱으로 결정한 가격에 지정가 매수 주문을 냅니다.
// 이전 매수 주문에서 부분 체결된 수량만큼 주문 수량을 줄입니다.
func (t *Trader) buyLimitedOrder(ctx context.Context) (*domain.Order, error) {
	if t.isLong {
		return nil, NewOrderError(t.settings.Symbol, "지정가 매수", ErrAlreadyLong)
	}

	quantity := t.settings.Quantity - t.partialFillQty
	if quantity < t.symbolInfo.StepSize {
		return nil, NewOrderError(t.settings.Symbol, "지정가 매수", ErrNoQuantity)
	}

	price, err := t.buyLimitPrice()
	if err != nil {
		return nil, NewOrderError(t.settings.Symbol, "지정가 매수", err)
	}

	return t.placeOrder(ctx, "지정가 매수", domain.OrderRequest{
		Symbol:        t.settings.Symbol,
		Side:          domain.Buy,
		Type:          domain.Limit,
		Quantity:      mustFormat(quantity, t.symbolInfo.StepSize),
		Price:         mustFormat(price, t.symbolInfo.TickSize),
		TimeInForce:   "GTC",
		ClientOrderID: newClientOrderID(),
	})
}

// sellLimitedOrder는 휴리스틱으로 결정한 가격에 보유 수량 전량의
// 지정가 매도 주문을 냅니다.
func (t *Trader) sellLimitedOrder(ctx context.Context) (*domain.Order, error) {
	if !t.isLong {
		return nil, NewOrderError(t.settings.Symbol, "지정가 매도", ErrAlreadyFlat)
	}

	price, err := t.sellLimitPrice()
	if err != nil {
		return nil, NewOrderError(t.settings.Symbol, "지정가 매도", err)
	}

	return t.placeOrder(ctx, "지정가 매도", domain.OrderRequest{
		Symbol:        t.settings.Symbol,
		Side:          domain.Sell,
		Type:          domain.Limit,
		Quantity:      mustFormat(t.baseBalance, t.symbolInfo.StepSize),
		Price:         mustFormat(price, t.symbolInfo.TickSize),
		TimeInForce:   "GTC",
		ClientOrderID: newClientOrderID(),
	})
}

// buyLimitPrice는 지정가 매수 가격을 결정합니다.
//   - RSI 과매도: 반등 전에 싸게 잡기 위해 종가보다 낮게
//   - 거래량 침체: 급한 체결이 필요 없으므로 종가보다 약간 높게
//   - 그 외: 확실한 체결을 위해 종가보다 충분히 높게
func (t *Trader) buyLimitPrice() (float64, error) {
	closePrice, rsi, volume, volumeAvg, err := t.limitSnapshot()
	if err != nil {
		return 0, err
	}

	switch {
	case rsi < 30:
		return closePrice - closePrice*limitOffsetTight, nil
	case volume < volumeAvg:
		return closePrice + closePrice*limitOffsetTight, nil
	default:
		return closePrice + closePrice*limitOffsetWide, nil
	}
}

// sellLimitPrice는 지정가 매도 가격을 결정합니다. 매수와 대칭인
// 휴리스틱을 적용한 뒤, 마지막 매수가 대비 허용 손실 아래로는
// 내려가지 않도록 하한을 둡니다.
func (t *Trader) sellLimitPrice() (float64, error) {
	closePrice, rsi, volume, volumeAvg, err := t.limitSnapshot()
	if err != nil {
		return 0, err
	}

	var price float64
	switch {
	case rsi > 70:
		price = closePrice + closePrice*limitOffsetTight
	case volume < volumeAvg:
		price = closePrice - closePrice*limitOffsetTight
	default:
		price = closePrice - closePrice*limitOffsetWide
	}

	if t.lastBuyPrice > 0 {
		floor := t.lastBuyPrice * (1 - t.acceptableLoss)
		if price < floor {
			price = floor
		}
	}
	return price, nil
}

// limitSnapshot은 지정가 휴리스틱에 필요한 시장 지표를 계산합니다
func (t *Trader) limitSnapshot() (closePrice, rsi, volume, volumeAvg float64, err error) {
	last, ok := t.candles.GetLastCandle()
	if !ok {
		return 0, 0, 0, 0, ErrNoCandleData
	}

	prices := indicator.ConvertCandlesToPriceData(t.candles)

	rsi, err = indicator.LastRSI(prices, indicator.RSIOption{Period: heuristicRSIPeriod})
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("RSI 계산 실패: %w", err)
	}

	volumes, err := indicator.VolumeSMA(prices, indicator.SMAOption{Period: heuristicVolumePeriod})
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("거래량 평균 계산 실패: %w", err)
	}

	return last.Close, rsi, last.Volume, volumes[len(volumes)-1].Value, nil
}

// placeOrder는 주문을 실행하고 결과를 로깅합니다
func (t *Trader) placeOrder(ctx context.Context, op string, req domain.OrderRequest) (*domain.Order, error) {
	order, err := t.exchange.PlaceOrder(ctx, req)
	if err != nil {
		return nil, NewOrderError(req.Symbol, op, err)
	}

	log.Printf("[%s] %s 주문 성공: ID %d, 수량 %s, 가격 %s, 상태 %s",
		req.Symbol, op, order.OrderID, req.Quantity, req.Price, order.Status)
	return order, nil
}

// cancelAllOrders는 심볼의 모든 미체결 주문을 취소합니다
func (t *Trader) cancelAllOrders(ctx context.Context) error {
	openOrders, err := t.exchange.GetOpenOrders(ctx, t.settings.Symbol)
	if err != nil {
		return fmt.Errorf("미체결 주문 조회 실패: %w", err)
	}

	for _, order := range openOrders {
		if err := t.exchange.CancelOrder(ctx, t.settings.Symbol, order.OrderID); err != nil {
			return fmt.Errorf("주문 취소 실패 (ID: %d): %w", order.OrderID, err)
		}
		log.Printf("[%s] 주문 취소 성공: %s %s (ID: %d)",
			t.settings.Symbol, order.Type, order.Side, order.OrderID)
	}
	return nil
}

// reconcileOpenOrders는 해당 방향의 미체결 주문이 있는지 확인하고,
// 부분 체결 수량을 집계합니다. 매수 방향에서는 부분 체결된 주문들 중
// 가장 높은 주문 가격을 마지막 매수가로 채택합니다.
func (t *Trader) reconcileOpenOrders(side domain.OrderSide) bool {
	// 부분 체결 수량은 이월하지 않고 매번 0에서 다시 집계한다.
	// 지난 사이클의 값이 남으면 이후 매수 수량이 계속 깎인다.
	t.partialFillQty = 0

	var orders []domain.Order
	for _, o := range t.openOrders {
		if o.Side == side {
			orders = append(orders, o)
		}
	}
	if len(orders) == 0 {
		return false
	}

	maxPrice := 0.0
	for _, o := range orders {
		t.partialFillQty += o.ExecutedQuantity
		if o.ExecutedQuantity > 0 && o.Price > maxPrice {
			maxPrice = o.Price
		}
	}

	if side == domain.Buy {
		t.lastBuyPrice = maxPrice
	}
	return true
}

// notifyTrade는 거래 실행 정보를 알림으로 전송합니다
func (t *Trader) notifyTrade(order *domain.Order, reason string) {
	if t.notifier == nil || order == nil {
		return
	}

	price := order.AvgFillPrice()
	if price == 0 {
		price = order.Price
	}

	info := notification.TradeInfo{
		Symbol:   order.Symbol,
		Side:     string(order.Side),
		Quantity: order.OrigQuantity,
		Price:    price,
		Total:    price * order.OrigQuantity,
		Balance:  t.baseBalance,
		Reason:   reason,
	}
	if err := t.notifier.SendTradeInfo(info); err != nil {
		log.Printf("[%s] 거래 정보 알림 전송 실패: %v", t.settings.Symbol, err)
	}
}

// notifyError는 에러 알림을 전송합니다
func (t *Trader) notifyError(err error) {
	if t.notifier == nil || err == nil {
		return
	}
	if sendErr := t.notifier.SendError(err); sendErr != nil {
		log.Printf("[%s] 에러 알림 전송 실패: %v", t.settings.Symbol, sendErr)
	}
}

// mustFormat은 값을 step 단위 문자열로 포맷합니다.
// step 유효성은 트레이더 생성 시점에 검증되므로 실패하지 않습니다.
func mustFormat(value, step float64) string {
	s, err := domain.FormatToStep(value, step)
	if err != nil {
		return fmt.Sprintf("%f", value)
	}
	return s
}
