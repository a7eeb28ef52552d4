package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task는 스케줄러가 반복 실행할 작업을 정의하는 인터페이스입니다.
// Execute가 에러를 반환하면 루프를 중단하고, NextWait이 반환한 시간만큼
// 대기한 뒤 다음 사이클을 실행합니다.
type Task interface {
	Execute(ctx context.Context) error
	NextWait() time.Duration
}

// Scheduler는 작업이 정한 간격으로 사이클을 반복 실행하는 스케줄러입니다
type Scheduler struct {
	name   string
	task   Task
	gate   *sync.Mutex
	stopCh chan struct{}
}

// Option은 스케줄러 생성 옵션을 정의합니다
type Option func(*Scheduler)

// WithGate는 여러 스케줄러가 공유하는 잠금을 설정합니다.
// 설정하면 같은 잠금을 가진 스케줄러의 사이클이 동시에 실행되지 않습니다.
func WithGate(gate *sync.Mutex) Option {
	return func(s *Scheduler) {
		s.gate = gate
	}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:   name,
		task:   task,
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start는 스케줄러를 시작합니다. 첫 사이클은 즉시 실행되며,
// 이후 사이클 간격은 매번 작업의 NextWait으로 다시 결정됩니다.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			log.Printf("[%s] 작업 실행 실패, 루프를 종료합니다: %v", s.name, err)
			return err
		}

		wait := s.task.NextWait()
		log.Printf("[%s] 다음 실행까지 %v 대기", s.name, wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case <-s.stopCh:
			timer.Stop()
			return nil

		case <-timer.C:
		}
	}
}

// runCycle은 공유 잠금을 존중하며 한 사이클을 실행합니다
func (s *Scheduler) runCycle(ctx context.Context) error {
	if s.gate != nil {
		s.gate.Lock()
		defer s.gate.Unlock()
	}
	return s.task.Execute(ctx)
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
