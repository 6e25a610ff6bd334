package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := NewTokenBucket(60, 2).withClock(clock.now)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "桶已空")
	assert.Equal(t, time.Second, tb.RetryAfter())

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, tb.Allow())
	assert.Equal(t, 500*time.Millisecond, tb.RetryAfter())

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow(), "一秒后补充一个令牌")

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, time.Duration(0), tb.RetryAfter())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "补充不超过容量")
}

func TestNewTokenBucketDefaultCapacity(t *testing.T) {
	assert.Equal(t, 30.0, NewTokenBucket(60, 0).capacity)
	assert.Equal(t, 1.0, NewTokenBucket(1, 0).capacity)
}

func TestMiddleware(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tb := NewTokenBucket(60, 1).withClock(clock.now)

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	h.POST("/upload", Middleware(tb), func(ctx context.Context, c *app.RequestContext) {
		c.String(consts.StatusOK, "ok")
	})

	resp := ut.PerformRequest(h.Engine, "POST", "/upload", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ut.PerformRequest(h.Engine, "POST", "/upload", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	assert.Contains(t, resp.Body.String(), "error")

	clock.t = clock.t.Add(time.Second)
	resp = ut.PerformRequest(h.Engine, "POST", "/upload", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
