package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fachebot/text-digest/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// corsMiddleware 只对白名单内的 Origin 返回跨域头
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Authorization, Origin, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware 按客户端 IP 限流，rate 为空时不限流
func rateLimitMiddleware(rate string) (gin.HandlerFunc, error) {
	if rate == "" {
		return nil, nil
	}

	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("解析限流规则 %q 失败: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed)
	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
			Kind:   "rate_limited",
			Detail: "Too many requests. Please try again later.",
		})
	})), nil
}

// requestLogger 记录请求耗时与状态码
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start).Round(time.Millisecond)
		if status >= http.StatusInternalServerError {
			logger.Warnf("[Server] %s %s %d %s %s", c.Request.Method, c.Request.URL.Path, status, latency, c.ClientIP())
			return
		}
		logger.Debugf("[Server] %s %s %d %s %s", c.Request.Method, c.Request.URL.Path, status, latency, c.ClientIP())
	}
}
