package domain

import "time"

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol        string    // 심볼 (예: BTCUSDT)
	Side          OrderSide // 매수/매도
	Type          OrderType // 주문 유형 (시장가, 지정가)
	Quantity      string    // 수량 (step size에 맞춰 포맷된 문자열)
	Price         string    // 지정가 (Limit 주문 시, tick size에 맞춰 포맷된 문자열)
	TimeInForce   string    // 주문 유효 기간 (GTC, IOC 등)
	ClientOrderID string    // 클라이언트 측 주문 ID
}

// Order는 거래소에 등록된 주문을 표현합니다
type Order struct {
	OrderID            int64       // 주문 ID
	Symbol             string      // 심볼
	Status             OrderStatus // 주문 상태
	ClientOrderID      string      // 클라이언트 측 주문 ID
	Price              float64     // 주문 가격
	OrigQuantity       float64     // 원래 주문 수량
	ExecutedQuantity   float64     // 체결된 수량
	CumulativeQuoteQty float64     // 체결된 명목 가치 합계
	Side               OrderSide   // 매수/매도
	Type               OrderType   // 주문 유형
	Time               time.Time   // 주문 생성 시간
}

// AvgFillPrice는 체결 수량 기준 평균 체결 가격을 반환합니다.
// 체결된 수량이 없으면 0을 반환합니다.
func (o Order) AvgFillPrice() float64 {
	if o.ExecutedQuantity <= 0 {
		return 0
	}
	return o.CumulativeQuoteQty / o.ExecutedQuantity
}

// SymbolInfo는 심볼의 거래 정보를 나타냅니다
type SymbolInfo struct {
	Symbol      string  // 심볼 이름 (예: BTCUSDT)
	BaseAsset   string  // 기초 자산 (예: BTC)
	QuoteAsset  string  // 견적 자산 (예: USDT)
	StepSize    float64 // 수량 최소 단위 (예: 0.001 BTC)
	TickSize    float64 // 가격 최소 단위 (예: 0.01 USDT)
	MinNotional float64 // 최소 주문 가치 (예: 10 USDT)
}
