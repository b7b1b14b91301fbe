// Package trace 는 HTTP 요청 ID 를 컨텍스트로 전달해 핸들러와 미들웨어 로그를 묶는다.
package trace

import (
	"context"

	"github.com/google/uuid"

	"chatline/logger"
)

// HeaderRequestID 는 요청/응답 양쪽에 쓰는 요청 ID 헤더이다.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLen = 64

type ctxKey struct{}

// RequestIDFrom 은 클라이언트가 보낸 값을 그대로 쓰되, 비었거나 길거나
// 출력 가능한 ASCII 가 아니면 새 UUID 를 만든다. 로그 필드에 그대로 들어가기 때문이다.
func RequestIDFrom(header string) string {
	if header == "" || len(header) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(header); i++ {
		if b := header[i]; b < 0x21 || b > 0x7e {
			return uuid.NewString()
		}
	}
	return header
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestID 는 미들웨어 밖에서 호출되면 빈 문자열이다.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Fields 는 extra 에 request_id 를 더한 로그 필드를 만든다.
func Fields(ctx context.Context, extra logger.Fields) logger.Fields {
	out := make(logger.Fields, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	if id := RequestID(ctx); id != "" {
		out["request_id"] = id
	}
	return out
}
