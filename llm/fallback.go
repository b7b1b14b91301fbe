package llm

import (
	"context"
	"unicode"
)

// FallbackGenerator 는 의미 있는 글자가 거의 없는 프롬프트에 대해
// 백엔드를 호출하지 않고 고정 응답을 돌려준다.
type FallbackGenerator struct {
	next     Generator
	minRunes int
	reply    string
	model    string
}

func NewFallbackGenerator(next Generator, minRunes int, reply, modelName string) *FallbackGenerator {
	return &FallbackGenerator{next: next, minRunes: minRunes, reply: reply, model: modelName}
}

func (g *FallbackGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	if IsTrivialPrompt(prompt, g.minRunes) {
		return Result{Text: g.reply, ModelName: g.model, Fallback: true}, nil
	}
	return g.next.Generate(ctx, prompt)
}

// IsTrivialPrompt 는 문자/숫자 개수가 minRunes 미만이면 true 이다.
func IsTrivialPrompt(prompt string, minRunes int) bool {
	n := 0
	for _, r := range prompt {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			n++
			if n >= minRunes {
				return false
			}
		}
	}
	return n < minRunes
}
