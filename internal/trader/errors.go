package trader

import "fmt"

// 주문 실행 전 상태 검증에서 발생하는 에러들입니다
var (
	ErrAlreadyLong  = fmt.Errorf("이미 포지션을 보유하고 있습니다")
	ErrAlreadyFlat  = fmt.Errorf("보유한 포지션이 없습니다")
	ErrNoQuantity   = fmt.Errorf("주문 가능한 수량이 없습니다")
	ErrNoCandleData = fmt.Errorf("캔들 데이터가 없습니다")
)

// OrderError는 주문 처리 에러를 확장한 구조체입니다
type OrderError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *OrderError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("주문 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("주문 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError는 새로운 OrderError를 생성합니다
func NewOrderError(symbol, op string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}
