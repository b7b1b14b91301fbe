package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chatline/config"
)

// QuotaLimiter 는 생성 호출 한도를 관리한다. 기다리지 않고 바로 거절한다.
// 분당 한도는 사용자별, 일일 한도는 인스턴스 전체(백엔드 호출 예산)에 적용된다.
// 인스턴스별 인메모리 카운터이며 재시작하면 초기화된다.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall map[string]time.Time

	now func() time.Time
}

// NewQuotaLimiter 는 설정 값이 0 이하인 방향의 제한을 두지 않는다.
func NewQuotaLimiter(cfg config.GenerationConfig) *QuotaLimiter {
	perDay := cfg.RequestsPerDay
	if perDay < 0 {
		perDay = 0
	}
	var interval time.Duration
	if cfg.RequestsPerMinute > 0 {
		interval = time.Minute / time.Duration(cfg.RequestsPerMinute)
	}
	return &QuotaLimiter{
		dailyLimit: perDay,
		interval:   interval,
		lastCall:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Enabled 는 어느 쪽이든 한도가 설정돼 있으면 true 이다.
func (l *QuotaLimiter) Enabled() bool {
	return l.dailyLimit > 0 || l.interval > 0
}

// Reserve 는 userID 의 호출 1건을 예약한다.
// 일일 한도 소진은 ErrQuotaExceeded, 사용자 분당 한도 초과는 ErrRateLimited 이다.
func (l *QuotaLimiter) Reserve(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	if key := now.Format("2006-01-02"); l.dayKey != key {
		l.dayKey = key
		l.usedToday = 0
		clear(l.lastCall)
	}

	if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
		return ErrQuotaExceeded
	}
	if l.interval > 0 {
		if last, ok := l.lastCall[userID]; ok {
			if wait := last.Add(l.interval).Sub(now); wait > 0 {
				return fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
			}
		}
		l.lastCall[userID] = now
	}
	l.usedToday++
	return nil
}

// NewFromConfig 는 Gemini 를 짧은 입력 대체 응답으로 감싼 Generator 를 만든다.
// 호출 한도는 파이프라인이 저장 전에 QuotaLimiter 로 따로 적용한다.
func NewFromConfig(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	gemini, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(gemini, cfg), nil
}

// Wrap 은 임의의 backend 에 대체 응답을 적용한다.
func Wrap(backend Generator, cfg config.GenerationConfig) Generator {
	return NewFallbackGenerator(backend, cfg.MinPromptRunes, cfg.FallbackReply, cfg.ModelName)
}
