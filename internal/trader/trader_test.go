package trader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExchange는 테스트용 거래소 구현입니다
type fakeExchange struct {
	balances   map[string]domain.Balance
	candles    domain.CandleList
	openOrders []domain.Order
	allOrders  []domain.Order

	placed        []domain.OrderRequest
	canceled      []int64
	placeStatus   domain.OrderStatus
	allOrderCalls int

	balanceErr error
	klinesErr  error
	placeErr   error
	cancelErr  error
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		balances:    map[string]domain.Balance{},
		placeStatus: domain.OrderFilled,
	}
}

func (f *fakeExchange) GetServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

func (f *fakeExchange) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	return f.candles, f.klinesErr
}

func (f *fakeExchange) GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error) {
	return testSymbolInfo(), nil
}

func (f *fakeExchange) GetBalance(ctx context.Context) (map[string]domain.Balance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balances, nil
}

func (f *fakeExchange) GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	return f.openOrders, nil
}

func (f *fakeExchange) GetAllOrders(ctx context.Context, symbol string, limit int) ([]domain.Order, error) {
	f.allOrderCalls++
	return f.allOrders, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed = append(f.placed, req)
	return &domain.Order{
		OrderID:       int64(len(f.placed)),
		Symbol:        req.Symbol,
		Status:        f.placeStatus,
		ClientOrderID: req.ClientOrderID,
		Side:          req.Side,
		Type:          req.Type,
		Time:          time.Now(),
	}, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, orderID)
	return nil
}

func (f *fakeExchange) SyncTime(ctx context.Context) error {
	return nil
}

func testSymbolInfo() *domain.SymbolInfo {
	return &domain.SymbolInfo{
		Symbol:      "BTCUSDT",
		BaseAsset:   "BTC",
		QuoteAsset:  "USDT",
		StepSize:    0.001,
		TickSize:    0.01,
		MinNotional: 10,
	}
}

func testSettings() Settings {
	return Settings{
		Symbol:            "BTCUSDT",
		Quantity:          0.01,
		Interval:          domain.Interval1h,
		CandleLimit:       100,
		BaseInterval:      1 * time.Minute,
		PostOrderDelay:    10 * time.Second,
		AcceptableLossPct: 1,
		StopLossPct:       3.5,
		TakeProfitAt:      []float64{2, 4, 8},
		TakeProfitAmount:  []float64{50, 50, 100},
	}
}

func testCandles(closes ...float64) domain.CandleList {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make(domain.CandleList, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{
			OpenTime:  baseTime.Add(time.Duration(i) * time.Hour),
			CloseTime: baseTime.Add(time.Duration(i+1) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
			Symbol:    "BTCUSDT",
			Interval:  domain.Interval1h,
		}
	}
	return candles
}

func risingCandles(n int) domain.CandleList {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return testCandles(closes...)
}

func fallingCandles(n int) domain.CandleList {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	return testCandles(closes...)
}

func newTestTrader(t *testing.T, fake *fakeExchange) *Trader {
	t.Helper()

	voter, err := strategy.NewVoter(
		strategy.MovingAverage, strategy.Params{"fast_window": 3, "slow_window": 10},
		"", nil, false,
	)
	require.NoError(t, err)

	tr, err := New(fake, voter, testSymbolInfo(), testSettings(),
		WithSettleDelay(0),
		WithRetryConfig(RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1}),
	)
	require.NoError(t, err)
	return tr
}

func TestDeterminePosition(t *testing.T) {
	tests := []struct {
		name     string
		balance  float64
		stepSize float64
		want     bool
	}{
		{"잔고가 최소 단위 이상이면 보유", 0.01, 0.001, true},
		{"잔고가 최소 단위와 같으면 보유", 0.001, 0.001, true},
		{"먼지 잔고는 무포지션", 0.0005, 0.001, false},
		{"잔고 없음", 0, 0.001, false},
		{"최소 단위 정보가 없으면 무포지션", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determinePosition(tt.balance, tt.stepSize))
		})
	}
}

func TestStopLossTriggered(t *testing.T) {
	ctx := context.Background()

	setup := func(closes ...float64) (*Trader, *fakeExchange) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.isLong = true
		tr.baseBalance = 0.5
		tr.lastBuyPrice = 100 // 손절선 96.5
		tr.candles = testCandles(closes...)
		return tr, fake
	}

	t.Run("두 캔들 모두 손절선 아래면 전량 매도", func(t *testing.T) {
		tr, fake := setup(96.0, 96.2)

		triggered, err := tr.stopLossTriggered(ctx)
		require.NoError(t, err)
		assert.True(t, triggered)

		require.Len(t, fake.placed, 1)
		assert.Equal(t, domain.Sell, fake.placed[0].Side)
		assert.Equal(t, domain.Market, fake.placed[0].Type)
		assert.Equal(t, "0.500", fake.placed[0].Quantity)
	})

	t.Run("한 캔들만 손절선 아래면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(97.0, 96.2)

		triggered, err := tr.stopLossTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
	})

	t.Run("무포지션이면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(90.0, 90.0)
		tr.isLong = false

		triggered, err := tr.stopLossTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
	})

	t.Run("매수 이력이 없으면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(90.0, 90.0)
		tr.lastBuyPrice = 0

		triggered, err := tr.stopLossTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
	})

	t.Run("발동 전 미체결 주문을 먼저 취소", func(t *testing.T) {
		tr, fake := setup(96.0, 96.2)
		fake.openOrders = []domain.Order{
			{OrderID: 7, Side: domain.Sell, Type: domain.Limit},
		}

		triggered, err := tr.stopLossTriggered(ctx)
		require.NoError(t, err)
		assert.True(t, triggered)
		assert.Equal(t, []int64{7}, fake.canceled)
	})
}

func TestTakeProfitTriggered(t *testing.T) {
	ctx := context.Background()

	setup := func(lastClose float64) (*Trader, *fakeExchange) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.isLong = true
		tr.baseBalance = 0.5
		tr.lastBuyPrice = 100
		tr.candles = testCandles(100, lastClose)
		return tr, fake
	}

	t.Run("상승폭이 단계 기준 이상이면 비율만큼 매도", func(t *testing.T) {
		tr, fake := setup(102.0) // +2.0%

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.True(t, triggered)

		require.Len(t, fake.placed, 1)
		assert.Equal(t, domain.Sell, fake.placed[0].Side)
		assert.Equal(t, "0.250", fake.placed[0].Quantity) // 0.5의 50%
		assert.Equal(t, 1, tr.takeProfitIndex)
	})

	t.Run("반올림으로 기준에 닿으면 발동", func(t *testing.T) {
		tr, fake := setup(101.9996) // +1.9996% -> 2.00%

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.True(t, triggered)
		require.Len(t, fake.placed, 1)
	})

	t.Run("기준 미달이면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(101.9) // +1.9%

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
		assert.Equal(t, 0, tr.takeProfitIndex)
	})

	t.Run("전량 체결이 아니면 단계를 유지", func(t *testing.T) {
		tr, fake := setup(102.0)
		fake.placeStatus = domain.OrderNew

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.True(t, triggered)
		assert.Equal(t, 0, tr.takeProfitIndex)
	})

	t.Run("모든 단계를 소진하면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(150.0)
		tr.takeProfitIndex = 3

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
	})

	t.Run("매수 이력이 없으면 발동하지 않음", func(t *testing.T) {
		tr, fake := setup(150.0)
		tr.lastBuyPrice = 0

		triggered, err := tr.takeProfitTriggered(ctx)
		require.NoError(t, err)
		assert.False(t, triggered)
		assert.Empty(t, fake.placed)
	})
}

func TestReconcileOpenOrders(t *testing.T) {
	t.Run("부분 체결 수량 집계와 최고 매수가 채택", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.lastBuyPrice = 123 // 갱신 전 값
		tr.openOrders = []domain.Order{
			{Side: domain.Buy, Price: 99, ExecutedQuantity: 0.002},
			{Side: domain.Buy, Price: 101, ExecutedQuantity: 0.003},
			{Side: domain.Buy, Price: 105, ExecutedQuantity: 0},
			{Side: domain.Sell, Price: 110, ExecutedQuantity: 0.004},
		}

		found := tr.reconcileOpenOrders(domain.Buy)
		assert.True(t, found)
		assert.InDelta(t, 0.005, tr.partialFillQty, 1e-9)
		assert.Equal(t, 101.0, tr.lastBuyPrice)
	})

	t.Run("부분 체결이 없으면 매수가는 0으로 재설정", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.lastBuyPrice = 123
		tr.openOrders = []domain.Order{
			{Side: domain.Buy, Price: 99, ExecutedQuantity: 0},
		}

		found := tr.reconcileOpenOrders(domain.Buy)
		assert.True(t, found)
		assert.Zero(t, tr.partialFillQty)
		assert.Zero(t, tr.lastBuyPrice)
	})

	t.Run("해당 방향 주문이 없으면 부분 체결 수량만 초기화", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.lastBuyPrice = 123
		tr.partialFillQty = 0.004
		tr.openOrders = []domain.Order{
			{Side: domain.Sell, Price: 110, ExecutedQuantity: 0.001},
		}

		found := tr.reconcileOpenOrders(domain.Buy)
		assert.False(t, found)
		assert.Zero(t, tr.partialFillQty)
		assert.Equal(t, 123.0, tr.lastBuyPrice)
	})

	t.Run("주문이 모두 정리된 다음 사이클에는 전체 수량으로 매수", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.candles = risingCandles(30)
		tr.openOrders = []domain.Order{
			{Side: domain.Buy, Price: 99, ExecutedQuantity: 0.004},
		}

		// 첫 사이클: 부분 체결된 매수 주문이 남아 있음
		require.True(t, tr.reconcileOpenOrders(domain.Buy))
		assert.InDelta(t, 0.004, tr.partialFillQty, 1e-9)

		// 다음 사이클: 미체결 주문이 전부 사라짐
		tr.openOrders = nil
		assert.False(t, tr.reconcileOpenOrders(domain.Buy))
		assert.Zero(t, tr.partialFillQty)

		// 지난 사이클의 부분 체결분이 새 매수 수량을 깎으면 안 된다
		_, err := tr.buyLimitedOrder(context.Background())
		require.NoError(t, err)
		require.Len(t, fake.placed, 1)
		assert.Equal(t, "0.010", fake.placed[0].Quantity)
	})

	t.Run("매도 방향은 매수가를 갱신하지 않음", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.lastBuyPrice = 123
		tr.openOrders = []domain.Order{
			{Side: domain.Sell, Price: 110, ExecutedQuantity: 0.001},
		}

		found := tr.reconcileOpenOrders(domain.Sell)
		assert.True(t, found)
		assert.InDelta(t, 0.001, tr.partialFillQty, 1e-9)
		assert.Equal(t, 123.0, tr.lastBuyPrice)
	})
}

func TestSellLimitPrice(t *testing.T) {
	t.Run("허용 손실 아래로는 내려가지 않음", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.isLong = true
		tr.lastBuyPrice = 100 // 허용 손실 1% -> 하한 99
		tr.candles = fallingCandles(30)
		tr.candles[len(tr.candles)-1].Close = 95

		price, err := tr.sellLimitPrice()
		require.NoError(t, err)
		assert.InDelta(t, 99.0, price, 1e-9)
	})

	t.Run("매수 이력이 없으면 휴리스틱 가격 그대로", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.isLong = true
		tr.lastBuyPrice = 0
		tr.candles = fallingCandles(30)

		// 하락 추세: RSI는 낮고 거래량은 평균과 같으므로 넓은 보정 적용
		price, err := tr.sellLimitPrice()
		require.NoError(t, err)
		last := tr.candles[len(tr.candles)-1].Close
		assert.InDelta(t, last-last*limitOffsetWide, price, 1e-9)
	})
}

func TestBuyLimitedOrderQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("부분 체결 수량만큼 차감하여 주문", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.candles = risingCandles(30)
		tr.partialFillQty = 0.004

		_, err := tr.buyLimitedOrder(ctx)
		require.NoError(t, err)

		require.Len(t, fake.placed, 1)
		assert.Equal(t, "0.006", fake.placed[0].Quantity)
		assert.Equal(t, domain.Limit, fake.placed[0].Type)
		assert.Equal(t, "GTC", fake.placed[0].TimeInForce)
	})

	t.Run("남은 수량이 최소 단위 미만이면 주문하지 않음", func(t *testing.T) {
		fake := newFakeExchange()
		tr := newTestTrader(t, fake)
		tr.candles = risingCandles(30)
		tr.partialFillQty = 0.0999

		_, err := tr.buyLimitedOrder(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoQuantity)
		assert.Empty(t, fake.placed)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("무포지션에서 매수 판단이면 지정가 매수", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))

		require.Len(t, fake.placed, 1)
		assert.Equal(t, domain.Buy, fake.placed[0].Side)
		assert.Equal(t, domain.Limit, fake.placed[0].Type)
		assert.Equal(t, "0.010", fake.placed[0].Quantity)
		assert.Equal(t, tr.settings.PostOrderDelay, tr.NextWait())
	})

	t.Run("포지션 보유 중 매도 판단이면 전량 지정가 매도", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = fallingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0.5}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))

		require.Len(t, fake.placed, 1)
		assert.Equal(t, domain.Sell, fake.placed[0].Side)
		assert.Equal(t, domain.Limit, fake.placed[0].Type)
		assert.Equal(t, "0.500", fake.placed[0].Quantity)
		assert.Equal(t, tr.settings.PostOrderDelay, tr.NextWait())
	})

	t.Run("이미 포지션이 있으면 매수 판단을 무시", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0.5}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))

		assert.Empty(t, fake.placed)
		assert.Equal(t, tr.settings.BaseInterval, tr.NextWait())
	})

	t.Run("같은 방향 미체결 주문은 취소 후 재주문", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0}
		fake.openOrders = []domain.Order{
			{OrderID: 11, Side: domain.Buy, Price: 99, ExecutedQuantity: 0.004},
		}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))

		assert.Equal(t, []int64{11}, fake.canceled)
		require.Len(t, fake.placed, 1)
		assert.Equal(t, "0.006", fake.placed[0].Quantity) // 부분 체결분 차감
	})

	t.Run("손절이 전략 판단보다 우선", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = fallingCandles(30) // 마지막 두 종가 172, 171
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0.5}
		fake.allOrders = []domain.Order{
			{
				Side: domain.Buy, Status: domain.OrderFilled,
				ExecutedQuantity: 0.5, CumulativeQuoteQty: 100, // 평균 매수가 200
			},
		}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))

		// 손절선 193 아래이므로 시장가 전량 매도만 실행
		require.Len(t, fake.placed, 1)
		assert.Equal(t, domain.Sell, fake.placed[0].Side)
		assert.Equal(t, domain.Market, fake.placed[0].Type)
	})

	t.Run("데이터 갱신 실패는 사이클만 건너뜀", func(t *testing.T) {
		fake := newFakeExchange()
		fake.balanceErr = fmt.Errorf("거래소 응답 없음")
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.Execute(ctx))
		assert.Empty(t, fake.placed)
		assert.Equal(t, tr.settings.BaseInterval, tr.NextWait())
	})

	t.Run("전략 설정 오류는 에러로 전파", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0}

		voter, err := strategy.NewVoter(
			strategy.MovingAverage, strategy.Params{"fast_window": -1, "slow_window": 10},
			"", nil, false,
		)
		require.NoError(t, err)

		tr, err := New(fake, voter, testSymbolInfo(), testSettings(), WithSettleDelay(0))
		require.NoError(t, err)

		assert.Error(t, tr.Execute(ctx))
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("체결 이력에서 최근 매수/매도가 추출", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0.5}
		fake.allOrders = []domain.Order{
			{Side: domain.Sell, Status: domain.OrderFilled, ExecutedQuantity: 0.5, CumulativeQuoteQty: 45},
			{Side: domain.Buy, Status: domain.OrderFilled, ExecutedQuantity: 0.5, CumulativeQuoteQty: 50},
			{Side: domain.Buy, Status: domain.OrderCanceled, ExecutedQuantity: 0, CumulativeQuoteQty: 0},
		}
		tr := newTestTrader(t, fake)

		require.NoError(t, tr.refresh(ctx))
		assert.True(t, tr.isLong)
		assert.Equal(t, 100.0, tr.lastBuyPrice) // 취소 주문은 제외
		assert.Equal(t, 90.0, tr.lastSellPrice)
		assert.Equal(t, 1, fake.allOrderCalls) // 이력 조회는 사이클당 한 번
	})

	t.Run("무포지션이면 익절 단계 초기화", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0}
		tr := newTestTrader(t, fake)
		tr.takeProfitIndex = 2

		require.NoError(t, tr.refresh(ctx))
		assert.Zero(t, tr.takeProfitIndex)
	})

	t.Run("포지션 보유 중에는 익절 단계 유지", func(t *testing.T) {
		fake := newFakeExchange()
		fake.candles = risingCandles(30)
		fake.balances["BTC"] = domain.Balance{Asset: "BTC", Available: 0.5}
		tr := newTestTrader(t, fake)
		tr.takeProfitIndex = 2

		require.NoError(t, tr.refresh(ctx))
		assert.Equal(t, 2, tr.takeProfitIndex)
	})
}
