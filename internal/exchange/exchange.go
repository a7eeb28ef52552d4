// internal/exchange/exchange.go
package exchange

import (
	"context"
	"time"

	"github.com/assist-by/halcyon/internal/domain"
)

// Exchange는 현물 거래소와의 상호작용을 위한 인터페이스입니다.
type Exchange interface {
	// 시장 데이터 조회
	GetServerTime(ctx context.Context) (time.Time, error)
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
	GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error)

	// 계정 데이터 조회
	GetBalance(ctx context.Context) (map[string]domain.Balance, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	GetAllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.Order, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error

	// 시간 동기화
	SyncTime(ctx context.Context) error
}
