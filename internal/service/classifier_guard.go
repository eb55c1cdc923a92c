package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/user/moviechat/internal/metrics"
	"github.com/user/moviechat/internal/utils"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// GuardConfig 外部分类器保护参数
type GuardConfig struct {
	Timeout          time.Duration // 单次调用超时（必须 > 0）
	RPS              float64       // <= 0 不限流
	CacheSize        int
	CacheTTL         time.Duration
	FailureThreshold uint32        // 连续失败多少次后熔断
	OpenTimeout      time.Duration // 熔断后多久尝试恢复
}

// DefaultGuardConfig 默认参数
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:          4 * time.Second,
		RPS:              5,
		CacheSize:        1000,
		CacheTTL:         30 * time.Minute,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// GuardedClassifier 给外部分类器加上超时、限流、熔断、去重和结果缓存
// 任何失败都以 error 返回，由调用方降级到本地规则
type GuardedClassifier struct {
	inner   Classifier
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	cache   *utils.TTLCache[string]
	sf      singleflight.Group
}

// NewGuardedClassifier 包装分类器
func NewGuardedClassifier(inner Classifier, cfg GuardConfig) *GuardedClassifier {
	def := DefaultGuardConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if inner == nil {
		inner = NopClassifier{}
	}

	g := &GuardedClassifier{
		inner:   inner,
		timeout: cfg.Timeout,
		cache:   utils.NewTTLCache[string](cfg.CacheSize, cfg.CacheTTL),
	}
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	threshold := cfg.FailureThreshold
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// 未配置分类器和调用方取消都不算故障
			return err == nil || errors.Is(err, ErrClassifierUnavailable) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[Classifier] 熔断状态变化")
			metrics.CircuitBreakerState.Set(breakerStateValue(to))
		},
	})
	return g
}

// Classify 先查缓存，再合并相同提示词的并发调用
// 共享调用不跟随任何一个调用方取消，只受自身超时限制；调用方取消时单独返回
func (g *GuardedClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	if v, ok := g.cache.Get(prompt); ok {
		metrics.ClassifierCalls.WithLabelValues("cached").Inc()
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := g.sf.DoChan(prompt, func() (interface{}, error) {
		return g.call(shared, prompt)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		metrics.ClassifierCalls.WithLabelValues("canceled").Inc()
		return "", ctx.Err()
	}
}

func (g *GuardedClassifier) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.ClassifierCalls.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("%w: rate limited: %v", ErrClassifierTimeout, err)
		}
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (string, error) {
		return g.inner.Classify(ctx, prompt)
	})
	metrics.ClassifierLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ErrClassifierUnavailable):
			metrics.ClassifierCalls.WithLabelValues("unavailable").Inc()
			return "", err
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.ClassifierCalls.WithLabelValues("rejected").Inc()
			return "", err
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			metrics.ClassifierCalls.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("%w: %v", ErrClassifierTimeout, err)
		default:
			metrics.ClassifierCalls.WithLabelValues("error").Inc()
			return "", err
		}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		metrics.ClassifierCalls.WithLabelValues("error").Inc()
		return "", ErrNoLabel
	}

	metrics.ClassifierCalls.WithLabelValues("ok").Inc()
	g.cache.Set(prompt, out)
	return out, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
