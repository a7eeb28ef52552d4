package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/assist-by/halcyon/internal/config"
	"github.com/assist-by/halcyon/internal/domain"
	"github.com/assist-by/halcyon/internal/exchange/binance"
	"github.com/assist-by/halcyon/internal/notification/discord"
	"github.com/assist-by/halcyon/internal/scheduler"
	"github.com/assist-by/halcyon/internal/strategy"
	"github.com/assist-by/halcyon/internal/trader"
)

func main() {
	// 명령줄 플래그 정의
	probeFlag := flag.Bool("probe", false, "심볼 거래 필터만 조회하고 종료")
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("트레이딩 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// API 키 선택
	apiKey := cfg.Binance.APIKey
	secretKey := cfg.Binance.SecretKey

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 시작 알림 전송
	if err := discordClient.SendInfo("🚀 트레이딩 봇이 시작되었습니다."); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}

	// 테스트넷 사용 시 테스트넷 API 키로 변경
	if cfg.Binance.UseTestnet {
		apiKey = cfg.Binance.TestAPIKey
		secretKey = cfg.Binance.TestSecretKey

		discordClient.SendInfo("⚠️ 테스트넷 모드로 실행 중입니다. 실제 자산은 사용되지 않습니다.")
	} else {
		discordClient.SendInfo("⚠️ 메인넷 모드로 실행 중입니다. 실제 자산이 사용됩니다!")
	}

	// 바이낸스 클라이언트 생성
	binanceClient := binance.NewClient(
		apiKey,
		secretKey,
		binance.WithTimeout(10*time.Second),
		binance.WithTestnet(cfg.Binance.UseTestnet),
	)
	// 바이낸스 서버와 시간 동기화
	if err := binanceClient.SyncTime(ctx); err != nil {
		log.Printf("바이낸스 서버 시간 동기화 실패: %v", err)
		if err := discordClient.SendError(fmt.Errorf("바이낸스 서버 시간 동기화 실패: %w", err)); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
		os.Exit(1)
	}

	// 전략 구성
	voter, err := strategy.NewVoter(
		strategy.ID(cfg.Trading.MainStrategy),
		strategy.Params(cfg.Trading.MainStrategyParams),
		strategy.ID(cfg.Trading.FallbackStrategy),
		strategy.Params(cfg.Trading.FallbackStrategyParams),
		cfg.Trading.FallbackEnabled,
	)
	if err != nil {
		log.Fatalf("전략 구성 실패: %v", err)
	}

	// 심볼별 거래 필터 조회
	symbolInfos := make(map[string]*domain.SymbolInfo)
	for _, symbol := range cfg.App.Symbols {
		info, err := binanceClient.GetSymbolInfo(ctx, symbol)
		if err != nil {
			log.Fatalf("%s 심볼 정보 조회 실패: %v", symbol, err)
		}
		log.Printf("[%s] 거래 필터: 수량 단위 %v, 가격 단위 %v, 최소 주문 가치 %v",
			symbol, info.StepSize, info.TickSize, info.MinNotional)
		symbolInfos[symbol] = info
	}

	// 필터 조회만 하고 종료
	if *probeFlag {
		log.Println("심볼 필터 조회 완료. 프로그램을 종료합니다.")
		return
	}

	// 전역 잠금 설정 시 모든 심볼의 사이클을 직렬화
	var gate *sync.Mutex
	if cfg.Trading.GlobalLock {
		gate = &sync.Mutex{}
	}

	// 심볼별 트레이더와 스케줄러 생성
	schedulers := make([]*scheduler.Scheduler, 0, len(cfg.App.Symbols))
	for _, symbol := range cfg.App.Symbols {
		t, err := trader.New(
			binanceClient,
			voter,
			symbolInfos[symbol],
			trader.Settings{
				Symbol:            symbol,
				Quantity:          cfg.App.Quantities[symbol],
				Interval:          domain.TimeInterval(cfg.App.Interval),
				CandleLimit:       cfg.App.CandleLimit,
				BaseInterval:      cfg.Trading.TimeToTrade,
				PostOrderDelay:    cfg.Trading.DelayAfterOrder,
				AcceptableLossPct: cfg.Trading.AcceptableLossPct,
				StopLossPct:       cfg.Trading.StopLossPct,
				TakeProfitAt:      cfg.Trading.TakeProfitAt,
				TakeProfitAmount:  cfg.Trading.TakeProfitAmount,
			},
			trader.WithNotifier(discordClient),
			trader.WithRetryConfig(trader.RetryConfig{
				MaxRetries: 3,
				BaseDelay:  1 * time.Second,
				MaxDelay:   30 * time.Second,
				Factor:     2.0,
			}),
		)
		if err != nil {
			log.Fatalf("%s 트레이더 생성 실패: %v", symbol, err)
		}

		var opts []scheduler.Option
		if gate != nil {
			opts = append(opts, scheduler.WithGate(gate))
		}
		schedulers = append(schedulers, scheduler.NewScheduler(symbol, t, opts...))
	}

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 심볼별 매매 루프 시작. 한 심볼의 루프가 설정 오류로 중단되어도
	// 다른 심볼의 루프는 계속 실행된다.
	g := new(errgroup.Group)
	for _, s := range schedulers {
		s := s
		g.Go(func() error {
			err := s.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				if sendErr := discordClient.SendError(err); sendErr != nil {
					log.Printf("에러 알림 전송 실패: %v", sendErr)
				}
				return err
			}
			return nil
		})
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- g.Wait()
	}()

	// 종료 시그널 또는 전체 루프 종료 대기
	select {
	case sig := <-sigChan:
		log.Printf("시스템 종료 신호 수신: %v", sig)
		cancel()
		<-waitCh

	case err := <-waitCh:
		if err != nil {
			log.Printf("매매 루프가 모두 중단되었습니다: %v", err)
		}
	}

	// 종료 알림 전송
	if err := discordClient.SendInfo("👋 트레이딩 봇이 정상적으로 종료되었습니다."); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}
