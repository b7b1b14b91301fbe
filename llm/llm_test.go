package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/config"
)

func TestIsTrivialPrompt(t *testing.T) {
	cases := []struct {
		prompt string
		want   bool
	}{
		{"", true},
		{"   ", true},
		{"?!", true},
		{"a", true},
		{"hi", false},
		{"안녕", false},
		{"  ok!! ", false},
		{"42", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsTrivialPrompt(c.prompt, 2), "prompt=%q", c.prompt)
	}
}

func TestFallbackSkipsBackendForTrivialPrompt(t *testing.T) {
	calls := 0
	backend := GeneratorFunc(func(ctx context.Context, prompt string) (Result, error) {
		calls++
		return Result{Text: "echo: " + prompt, PromptTokens: 3, CompletionTokens: 4}, nil
	})
	g := NewFallbackGenerator(backend, 2, "tell me more", "gemini-test")

	res, err := g.Generate(context.Background(), "?")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "tell me more", res.Text)
	assert.Zero(t, res.TotalTokens())
	assert.Equal(t, 0, calls)

	res, err = g.Generate(context.Background(), "Hello")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "echo: Hello", res.Text)
	assert.Equal(t, int64(7), res.TotalTokens())
	assert.Equal(t, 1, calls)
}

func TestQuotaLimiterDailyLimit(t *testing.T) {
	l := NewQuotaLimiter(config.GenerationConfig{RequestsPerDay: 2})
	ctx := context.Background()
	require.True(t, l.Enabled())

	require.NoError(t, l.Reserve(ctx, "alice"))
	require.NoError(t, l.Reserve(ctx, "bob"))
	assert.ErrorIs(t, l.Reserve(ctx, "carol"), ErrQuotaExceeded)

	// 날짜가 바뀌면 카운터가 초기화된다.
	l.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.NoError(t, l.Reserve(ctx, "carol"))
}

func TestQuotaLimiterPerMinuteIsPerUserAndNeverWaits(t *testing.T) {
	l := NewQuotaLimiter(config.GenerationConfig{RequestsPerMinute: 1})
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx, "alice"))

	start := time.Now()
	err := l.Reserve(ctx, "alice")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// 다른 사용자는 alice 의 한도와 무관하다.
	assert.NoError(t, l.Reserve(ctx, "bob"))

	base := time.Now()
	l.now = func() time.Time { return base.Add(time.Minute) }
	assert.NoError(t, l.Reserve(ctx, "alice"))
}

func TestQuotaLimiterDisabledByDefault(t *testing.T) {
	l := NewQuotaLimiter(config.Default().Generation)
	assert.False(t, l.Enabled())
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Reserve(context.Background(), "alice"))
	}
}

func TestWrapAppliesFallbackOnly(t *testing.T) {
	calls := 0
	backend := GeneratorFunc(func(ctx context.Context, prompt string) (Result, error) {
		calls++
		return Result{Text: "ok"}, nil
	})
	g := Wrap(backend, config.GenerationConfig{MinPromptRunes: 2, FallbackReply: "more?"})

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "a real question")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)

	res, err := g.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 3, calls)
}
