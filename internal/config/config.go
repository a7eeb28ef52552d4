package config

import (
	"fmt"
	"time"

	"github.com/assist-by/halcyon/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey        string `envconfig:"BINANCE_API_KEY" required:"true"`
		SecretKey     string `envconfig:"BINANCE_SECRET_KEY" required:"true"`
		TestAPIKey    string `envconfig:"BINANCE_TEST_API_KEY"`
		TestSecretKey string `envconfig:"BINANCE_TEST_SECRET_KEY"`
		UseTestnet    bool   `envconfig:"USE_TESTNET" default:"false"`
	}

	// 디스코드 웹훅 설정 (비워두면 해당 알림은 전송하지 않음)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		Symbols     []string           `envconfig:"SYMBOLS" default:"BTCUSDT"`
		Quantities  map[string]float64 `envconfig:"TRADE_QUANTITIES" required:"true"`
		Interval    string             `envconfig:"CANDLE_INTERVAL" default:"1h"`
		CandleLimit int                `envconfig:"CANDLE_LIMIT" default:"100"`
	}

	// 거래 설정
	Trading struct {
		TimeToTrade     time.Duration `envconfig:"TIME_TO_TRADE" default:"30m"`
		DelayAfterOrder time.Duration `envconfig:"DELAY_AFTER_ORDER" default:"1m"`

		StopLossPct       float64 `envconfig:"STOP_LOSS_PCT" default:"3.5"`
		AcceptableLossPct float64 `envconfig:"ACCEPTABLE_LOSS_PCT" default:"0"`

		TakeProfitAt     []float64 `envconfig:"TAKE_PROFIT_AT"`
		TakeProfitAmount []float64 `envconfig:"TAKE_PROFIT_AMOUNT"`

		MainStrategy       string             `envconfig:"MAIN_STRATEGY" default:"moving_average_anticipation"`
		MainStrategyParams map[string]float64 `envconfig:"MAIN_STRATEGY_PARAMS"`

		FallbackEnabled        bool               `envconfig:"FALLBACK_STRATEGY_ENABLED" default:"true"`
		FallbackStrategy       string             `envconfig:"FALLBACK_STRATEGY" default:"moving_average"`
		FallbackStrategyParams map[string]float64 `envconfig:"FALLBACK_STRATEGY_PARAMS"`

		// 여러 심볼의 사이클이 동시에 실행되지 않도록 직렬화
		GlobalLock bool `envconfig:"GLOBAL_LOCK" default:"false"`
	}
}

// validIntervals는 지원하는 캔들 간격 목록입니다
var validIntervals = map[domain.TimeInterval]bool{
	domain.Interval1m: true, domain.Interval3m: true, domain.Interval5m: true,
	domain.Interval15m: true, domain.Interval30m: true, domain.Interval1h: true,
	domain.Interval2h: true, domain.Interval4h: true, domain.Interval6h: true,
	domain.Interval8h: true, domain.Interval12h: true, domain.Interval1d: true,
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if len(cfg.App.Symbols) == 0 {
		return fmt.Errorf("거래할 심볼이 없습니다")
	}

	for _, symbol := range cfg.App.Symbols {
		qty, ok := cfg.App.Quantities[symbol]
		if !ok {
			return fmt.Errorf("%s의 매수 수량이 설정되지 않았습니다 (TRADE_QUANTITIES)", symbol)
		}
		if qty <= 0 {
			return fmt.Errorf("%s의 매수 수량은 0보다 커야 합니다: %v", symbol, qty)
		}
	}

	if !validIntervals[domain.TimeInterval(cfg.App.Interval)] {
		return fmt.Errorf("지원하지 않는 캔들 간격입니다: %s", cfg.App.Interval)
	}

	if cfg.App.CandleLimit < 100 {
		return fmt.Errorf("CANDLE_LIMIT은 100 이상이어야 합니다")
	}

	if cfg.Trading.TimeToTrade < 10*time.Second {
		return fmt.Errorf("TIME_TO_TRADE는 10초 이상이어야 합니다")
	}

	if cfg.Trading.DelayAfterOrder < 10*time.Second {
		return fmt.Errorf("DELAY_AFTER_ORDER는 10초 이상이어야 합니다")
	}

	if cfg.Trading.StopLossPct < 0 || cfg.Trading.StopLossPct >= 100 {
		return fmt.Errorf("STOP_LOSS_PCT는 0 이상 100 미만이어야 합니다: %v", cfg.Trading.StopLossPct)
	}

	if cfg.Trading.AcceptableLossPct < 0 || cfg.Trading.AcceptableLossPct >= 100 {
		return fmt.Errorf("ACCEPTABLE_LOSS_PCT는 0 이상 100 미만이어야 합니다: %v", cfg.Trading.AcceptableLossPct)
	}

	if len(cfg.Trading.TakeProfitAt) != len(cfg.Trading.TakeProfitAmount) {
		return fmt.Errorf("익절 설정 길이가 일치하지 않습니다: TAKE_PROFIT_AT %d개, TAKE_PROFIT_AMOUNT %d개",
			len(cfg.Trading.TakeProfitAt), len(cfg.Trading.TakeProfitAmount))
	}

	for i, amount := range cfg.Trading.TakeProfitAmount {
		if amount <= 0 || amount > 100 {
			return fmt.Errorf("익절 매도 비율은 0 초과 100 이하이어야 합니다: %d번째 값 %v", i+1, amount)
		}
	}

	if cfg.Binance.UseTestnet && (cfg.Binance.TestAPIKey == "" || cfg.Binance.TestSecretKey == "") {
		return fmt.Errorf("테스트넷 모드에는 테스트넷 API 키가 필요합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일 로드
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
