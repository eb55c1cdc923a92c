package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal 按意图统计的消息数
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_messages_total",
		Help: "Chat messages handled, by routed intent.",
	}, []string{"intent"})

	// ResponsesTotal 按回复类型统计
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_responses_total",
		Help: "Chat responses produced, by kind.",
	}, []string{"kind"})

	// ClassifierCalls 外部分类器调用结果：ok / cached / error / timeout / rejected
	ClassifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_classifier_calls_total",
		Help: "External classifier invocations, by outcome.",
	}, []string{"outcome"})

	// ClassifierLatency 外部分类器耗时
	ClassifierLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviechat_classifier_latency_seconds",
		Help:    "Latency of external classifier calls.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	})

	// RecommendationsComputed 结果列表计算次数（按是否命中）
	RecommendationsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviechat_recommendations_computed_total",
		Help: "Result lists computed for completed slot sets, by outcome.",
	}, []string{"outcome"})

	// ActiveSessions 当前会话数
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviechat_active_sessions",
		Help: "Sessions currently held in memory.",
	})

	// CircuitBreakerState 分类器熔断状态：0 关闭，1 半开，2 打开
	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviechat_classifier_circuit_state",
		Help: "Classifier circuit breaker state (0 closed, 1 half-open, 2 open).",
	})
)
