package ratelimit

import (
	"context"
	"math"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Middleware 超出限额时返回429，并在 Retry-After 中给出秒数
func Middleware(tb *TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if tb.Allow() {
			c.Next(ctx)
			return
		}
		wait := int(math.Ceil(tb.RetryAfter().Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(wait, 1)))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后重试"})
	}
}
