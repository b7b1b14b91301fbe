// Package llm 은 응답 생성 백엔드(Gemini)를 감싸는 어댑터이다.
// 호출자는 Generator 인터페이스만 알며, 재시도 정책은 두지 않는다.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrGenerationFailed 는 백엔드 호출 실패(네트워크, 타임아웃, 빈 응답)를 감싼다.
	ErrGenerationFailed = errors.New("llm: generation failed")
	// ErrQuotaExceeded 는 일일 호출 한도 소진을 뜻한다.
	ErrQuotaExceeded = errors.New("llm: daily quota exceeded")
	// ErrRateLimited 는 한 사용자의 분당 한도 초과이다.
	ErrRateLimited = errors.New("llm: rate limited")
)

// Result 는 생성 결과와 토큰 사용량이다.
type Result struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
	ModelName        string
	ModelVersion     string
	Latency          time.Duration
	// Fallback 은 백엔드를 호출하지 않고 로컬 응답을 돌려준 경우 true 이다.
	Fallback bool
}

func (r Result) TotalTokens() int64 {
	return r.PromptTokens + r.CompletionTokens
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// GeneratorFunc 는 함수를 Generator 로 쓰기 위한 어댑터이다.
type GeneratorFunc func(ctx context.Context, prompt string) (Result, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (Result, error) {
	return f(ctx, prompt)
}
