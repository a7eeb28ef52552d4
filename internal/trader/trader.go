package trader

import (
	"fmt"
	"time"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/exchange"
	"github.com/assist-by/halcyon/internal/notification"
	"github.com/assist-by/halcyon/internal/strategy"
)

// RetryConfig는 재시도 설정을 정의합니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// Settings는 단일 심볼 트레이더의 거래 설정을 정의합니다
type Settings struct {
	Symbol      string              // 거래 심볼 (예: BTCUSDT)
	Quantity    float64             // 1회 매수 수량 (기초 자산)
	Interval    domain.TimeInterval // 캔들 간격
	CandleLimit int                 // 조회할 캔들 개수

	BaseInterval   time.Duration // 기본 사이클 간격
	PostOrderDelay time.Duration // 주문 직후 사이클 간격

	AcceptableLossPct float64 // 지정가 매도 하한 (%, 마지막 매수가 기준)
	StopLossPct       float64 // 손절 기준 하락폭 (%)

	TakeProfitAt     []float64 // 단계별 익절 트리거 (%, 마지막 매수가 기준 상승폭)
	TakeProfitAmount []float64 // 단계별 익절 매도 비율 (%, 보유 수량 기준)
}

// Trader는 단일 심볼에 대한 매매 사이클을 수행합니다.
// 포지션 상태는 매 사이클마다 거래소 잔고에서 다시 계산하며,
// 사이클 사이에 이월되는 상태는 익절 단계 인덱스뿐입니다.
type Trader struct {
	exchange   exchange.Exchange
	notifier   notification.Notifier
	voter      *strategy.Voter
	symbolInfo *domain.SymbolInfo
	settings   Settings

	acceptableLoss float64 // 비율로 변환된 값 (0.01 == 1%)
	stopLoss       float64

	retry       RetryConfig
	settleDelay time.Duration

	// 사이클 상태 (refresh에서 갱신)
	candles        domain.CandleList
	baseBalance    float64
	isLong         bool
	openOrders     []domain.Order
	lastBuyPrice   float64
	lastSellPrice  float64
	partialFillQty float64

	takeProfitIndex int
	nextWait        time.Duration
}

// Option은 트레이더 생성 옵션을 정의합니다
type Option func(*Trader)

// WithNotifier는 알림 전송기를 설정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(t *Trader) {
		t.notifier = n
	}
}

// WithRetryConfig는 데이터 갱신 재시도 설정을 지정합니다
func WithRetryConfig(config RetryConfig) Option {
	return func(t *Trader) {
		t.retry = config
	}
}

// WithSettleDelay는 주문 취소/실행 후 거래소 반영 대기 시간을 설정합니다
func WithSettleDelay(d time.Duration) Option {
	return func(t *Trader) {
		t.settleDelay = d
	}
}

// New는 새로운 트레이더를 생성합니다
func New(ex exchange.Exchange, voter *strategy.Voter, symbolInfo *domain.SymbolInfo, settings Settings, opts ...Option) (*Trader, error) {
	if symbolInfo == nil || symbolInfo.StepSize <= 0 {
		return nil, fmt.Errorf("심볼 정보가 올바르지 않습니다: %+v", symbolInfo)
	}
	if settings.Quantity <= 0 {
		return nil, fmt.Errorf("매수 수량은 0보다 커야 합니다: %v", settings.Quantity)
	}
	if len(settings.TakeProfitAt) != len(settings.TakeProfitAmount) {
		return nil, fmt.Errorf("익절 설정 길이가 일치하지 않습니다: 트리거 %d개, 비율 %d개",
			len(settings.TakeProfitAt), len(settings.TakeProfitAmount))
	}
	if settings.StopLossPct < 0 || settings.AcceptableLossPct < 0 {
		return nil, fmt.Errorf("손실 허용치는 음수일 수 없습니다")
	}

	t := &Trader{
		exchange:       ex,
		voter:          voter,
		symbolInfo:     symbolInfo,
		settings:       settings,
		acceptableLoss: settings.AcceptableLossPct / 100,
		stopLoss:       settings.StopLossPct / 100,
		retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
			MaxDelay:   30 * time.Second,
			Factor:     2.0,
		},
		settleDelay: 2 * time.Second,
		nextWait:    settings.BaseInterval,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Symbol은 트레이더가 담당하는 심볼을 반환합니다
func (t *Trader) Symbol() string {
	return t.settings.Symbol
}

// NextWait은 다음 사이클까지 대기할 시간을 반환합니다.
// 주문을 낸 사이클 직후에는 짧은 간격을 사용합니다.
func (t *Trader) NextWait() time.Duration {
	return t.nextWait
}

// determinePosition은 기초 자산 잔고로 포지션 보유 여부를 판정합니다.
// 최소 주문 단위 미만의 잔고는 먼지로 간주하고 무포지션으로 처리합니다.
func determinePosition(balance, stepSize float64) bool {
	return stepSize > 0 && balance >= stepSize
}
