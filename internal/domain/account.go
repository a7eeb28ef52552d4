package domain

// Balance는 계정 잔고 정보를 표현합니다
type Balance struct {
	Asset     string  // 자산 심볼 (예: BTC, USDT)
	Available float64 // 사용 가능한 잔고
	Locked    float64 // 주문 등에 잠긴 잔고
}

// Total은 사용 가능한 잔고와 잠긴 잔고의 합을 반환합니다
func (b Balance) Total() float64 {
	return b.Available + b.Locked
}

// AccountInfo는 계정 정보를 표현합니다
type AccountInfo struct {
	Balances map[string]Balance // 자산별 잔고
	CanTrade bool               // 거래 가능 여부
}
