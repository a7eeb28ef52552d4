package notification

import "github.com/assist-by/halcyon/internal/domain"

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Symbol   string  // 심볼 (예: BTCUSDT)
	Side     string  // "BUY" or "SELL"
	Quantity float64 // 구매/판매 수량 (코인)
	Price    float64 // 체결/주문 가격
	Total    float64 // 명목 가치 (견적 자산 기준)
	Balance  float64 // 현재 기초 자산 잔고
	Reason   string  // 주문 사유 (전략, 손절, 익절 등)
}

// GetColorForSide는 주문 방향에 따른 색상을 반환합니다
func GetColorForSide(side string) int {
	switch side {
	case string(domain.Buy):
		return ColorSuccess
	case string(domain.Sell):
		return ColorError
	default:
		return ColorInfo
	}
}
