// Package metrics 提供基于Prometheus的指标收集
//
// 指标分两类：
// 1. HTTP请求指标：请求总数、耗时分布、正在处理数（由Gin中间件上报）
// 2. 业务指标：借书/还书成功与拒绝次数、逾期扫描结果、罚款创建数
//
// 使用方式：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(metrics.Handler()))
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（/api/borrow-records）、status（200/400/404）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 借阅业务指标

	// BorrowsTotal 借书操作总数（Counter）
	// 标签：result（created / no_copies / unavailable / not_found / error）
	BorrowsTotal *prometheus.CounterVec

	// ReturnsTotal 还书操作总数（Counter）
	// 标签：result（returned / already_returned / blocked_by_fines / not_found / error）
	ReturnsTotal *prometheus.CounterVec

	// BorrowTxDuration 借书/还书事务耗时（Histogram）
	// 事务期间持有图书行锁,耗时直接反映锁竞争情况
	BorrowTxDuration prometheus.Histogram

	// 逾期扫描指标

	// SweepRunsTotal 逾期扫描执行总数（Counter）
	SweepRunsTotal prometheus.Counter

	// SweepFinesCreated 扫描创建的罚款总数（Counter）
	SweepFinesCreated prometheus.Counter

	// SweepFailuresTotal 扫描中单条罚款创建失败总数（Counter）
	SweepFailuresTotal prometheus.Counter

	// SweepDuration 逾期扫描耗时（Histogram）
	SweepDuration prometheus.Histogram
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次，用于注册所有指标到全局Registry
func InitMetrics() {
	// 防止重复初始化
	if initialized {
		return
	}
	initialized = true

	// HTTP请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// 借阅业务指标
	BorrowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_borrows_total",
			Help: "Total number of borrow attempts by result",
		},
		[]string{"result"},
	)

	ReturnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_returns_total",
			Help: "Total number of return attempts by result",
		},
		[]string{"result"},
	)

	BorrowTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "library_borrow_tx_duration_seconds",
			Help: "Duration of borrow/return transactions in seconds",
			// 事务应该在毫秒级完成,长尾通常是锁等待
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// 逾期扫描指标
	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_overdue_sweep_runs_total",
			Help: "Total number of overdue sweep executions",
		},
	)

	SweepFinesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_overdue_sweep_fines_created_total",
			Help: "Total number of fines created by the overdue sweep",
		},
	)

	SweepFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_overdue_sweep_failures_total",
			Help: "Total number of per-loan failures during the overdue sweep",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "library_overdue_sweep_duration_seconds",
			Help:    "Duration of overdue sweep runs in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 60},
		},
	)
}

// Handler 返回/metrics端点的HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// =========================================
// 辅助函数（nil安全,指标未初始化时不panic）
// =========================================

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter != nil {
		counter.Inc()
	}
}

// IncCounterVec 递增带标签的Counter
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter != nil {
		counter.With(labels).Inc()
	}
}

// AddCounter Counter增加指定值
func AddCounter(counter prometheus.Counter, value float64) {
	if counter != nil {
		counter.Add(value)
	}
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge != nil {
		gauge.Inc()
	}
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge != nil {
		gauge.Dec()
	}
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram != nil {
		histogram.Observe(value)
	}
}

// ObserveHistogramVec 记录带标签的Histogram观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram != nil {
		histogram.With(labels).Observe(value)
	}
}
