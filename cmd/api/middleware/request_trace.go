package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"chatline/cmd/api/auth"
	"chatline/cmd/api/trace"
	"chatline/logger"
)

// RequestTrace 는 요청마다 Request ID 를 정해 컨텍스트와 응답 헤더에 싣고,
// 요청이 끝나면 한 줄 로그를 남긴다. 메시지 본문은 로그에 남기지 않고 크기만 기록한다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := trace.RequestIDFrom(req.Header.Get(trace.HeaderRequestID))
		c.Request = req.WithContext(trace.WithRequestID(req.Context(), requestID))
		c.Writer.Header().Set(trace.HeaderRequestID, requestID)

		c.Next()

		fields := logger.Fields{
			"method":     req.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": requestID,
		}
		if fields["path"] == "" {
			fields["path"] = req.URL.Path
		}
		if req.ContentLength > 0 {
			fields["body_bytes"] = req.ContentLength
		}
		if caller, ok := auth.CallerFrom(c); ok {
			fields["user_id"] = caller.ID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		logger.InfoWithFields("completed request", fields)
	}
}
