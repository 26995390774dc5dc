// Package metrics 暴露给 /metrics 端点的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests 按操作统计发出的 API 请求数
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bililink",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of remote API requests issued.",
	}, []string{"operation"})

	// APIFailures 按操作和失败类型统计失败的 API 请求数
	APIFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bililink",
		Subsystem: "api",
		Name:      "request_failures_total",
		Help:      "Total number of remote API requests that failed.",
	}, []string{"operation", "kind"})

	// LoginPolls 扫码登录轮询次数
	LoginPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bililink",
		Subsystem: "login",
		Name:      "qr_polls_total",
		Help:      "Total number of QR login poll requests.",
	})
)
