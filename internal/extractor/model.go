package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/nlp"
)

// guardedModel 为语言模型调用加超时和panic保护
// 调用失败时记录告警并返回空结果，调用方自然退回正则路径
type guardedModel struct {
	model   nlp.LanguageModel
	timeout time.Duration
	log     zerolog.Logger
}

func (g *guardedModel) enabled() bool {
	return g != nil && g.model != nil
}

func (g *guardedModel) persons(ctx context.Context, text string) []nlp.Span {
	if !g.enabled() {
		return nil
	}
	return g.spans(ctx, "person", text, g.model.FindPersonEntities)
}

func (g *guardedModel) orgs(ctx context.Context, text string) []nlp.Span {
	if !g.enabled() {
		return nil
	}
	return g.spans(ctx, "org", text, g.model.FindOrgEntities)
}

func (g *guardedModel) locations(ctx context.Context, text string) []nlp.Span {
	if !g.enabled() {
		return nil
	}
	return g.spans(ctx, "location", text, g.model.FindLocationEntities)
}

func (g *guardedModel) skills(ctx context.Context, text string) []nlp.Span {
	if !g.enabled() {
		return nil
	}
	return g.spans(ctx, "skill", text, g.model.FindSkillEntities)
}

// verbs ok为false表示模型不可用或调用失败，与"没有动词"区分
func (g *guardedModel) verbs(ctx context.Context, text string) ([]string, bool) {
	if !g.enabled() {
		return nil, false
	}
	out, err := callWithTimeout(ctx, g.timeout, func(c context.Context) ([]string, error) {
		return g.model.FindVerbs(c, text)
	})
	if err != nil {
		g.log.Warn().Err(err).Str("call", "verbs").Msg("语言模型调用失败，退回正则路径")
		return nil, false
	}
	return out, true
}

func (g *guardedModel) spans(ctx context.Context, call, text string, fn func(context.Context, string) ([]nlp.Span, error)) []nlp.Span {
	out, err := callWithTimeout(ctx, g.timeout, func(c context.Context) ([]nlp.Span, error) {
		return fn(c, text)
	})
	if err != nil {
		g.log.Warn().Err(err).Str("call", call).Msg("语言模型调用失败，退回正则路径")
		return nil
	}
	return out
}

// callWithTimeout 在独立goroutine中执行fn，超时或ctx结束时立即返回
// 超时后fn仍可能在后台运行，结果被丢弃
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("语言模型panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
