// Package ratelimit 令牌桶限流，用于保护上传和抽取接口
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket 令牌桶限流器，并发安全
type TokenBucket struct {
	rate           float64 // 每秒生成的令牌数
	capacity       float64
	tokens         float64
	lastRefillTime time.Time
	now            func() time.Time
	mutex          sync.Mutex
}

// NewTokenBucket 按每分钟请求数创建限流器，capacity<=0时取每分钟请求数的一半
func NewTokenBucket(perMinute int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = max(perMinute/2, 1)
	}
	tb := &TokenBucket{
		rate:     float64(perMinute) / 60.0,
		capacity: float64(capacity),
		tokens:   float64(capacity), // 初始填满
		now:      time.Now,
	}
	tb.lastRefillTime = tb.now()
	return tb
}

// withClock 测试用
func (tb *TokenBucket) withClock(now func() time.Time) *TokenBucket {
	tb.now = now
	tb.lastRefillTime = now()
	return tb
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
}

// Allow 有令牌时消耗一个并返回true
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// RetryAfter 距离下一个令牌可用还需等待的时间
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 || tb.rate <= 0 {
		return 0
	}
	return time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
}
