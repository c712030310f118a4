package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/anoixa/files-manager/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// UploadLimiter 限制同时处理的上传请求数
// 超出上限的请求最多排队 wait，仍拿不到名额时返回 503 并带上 Retry-After
type UploadLimiter struct {
	sem      *semaphore.Weighted
	wait     time.Duration
	inFlight atomic.Int64
}

// NewUploadLimiter slots<=0 时按 1 处理，wait<=0 表示不排队
func NewUploadLimiter(slots int64, wait time.Duration) *UploadLimiter {
	if slots <= 0 {
		slots = 1
	}
	return &UploadLimiter{
		sem:  semaphore.NewWeighted(slots),
		wait: wait,
	}
}

// InFlight 当前占用的名额
func (l *UploadLimiter) InFlight() int64 {
	return l.inFlight.Load()
}

func (l *UploadLimiter) acquire(ctx context.Context) bool {
	if l.sem.TryAcquire(1) {
		return true
	}
	if l.wait <= 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	return l.sem.Acquire(ctx, 1) == nil
}

func (l *UploadLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(l.wait/time.Second) + 1)

	return func(c *gin.Context) {
		if !l.acquire(c.Request.Context()) {
			c.Header("Retry-After", retryAfter)
			common.RespondErrorAbort(c, http.StatusServiceUnavailable, "Too many uploads in progress")
			return
		}
		l.inFlight.Add(1)
		defer func() {
			l.inFlight.Add(-1)
			l.sem.Release(1)
		}()

		c.Next()
	}
}
