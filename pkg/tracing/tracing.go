// Package tracing 提供基于OpenTelemetry的分布式追踪支持
//
// # 为什么借还书接口需要追踪？
//
// 一次借书请求在进程内也要穿过多层：
//
//	HTTP Handler → 借阅用例 → MySQL事务（行锁+扣减副本） → 事件发布（RabbitMQ）
//
// 当接口变慢时，需要知道耗时花在哪一层：是行锁等待、是慢SQL、
// 还是broker不可用时熔断前的超时。追踪把每一层记录为一个Span，
// 在Jaeger UI里可以直接看到完整的耗时分布。
//
// # 核心概念
//
// 1. Trace：一次完整的请求链路，如"读者借书"从收到HTTP请求到返回响应
// 2. Span：链路中的一个操作单元，如"行锁锁定图书"、"创建借阅记录"
// 3. SpanContext：跨操作传递的元数据（TraceID/SpanID/ParentSpanID）
//
// 追踪示例：
//
//	Trace: POST /borrowings（TraceID=abc123）
//	├─ Span1: HTTP请求处理（耗时60ms）
//	│  ├─ Span2: 借阅事务（耗时52ms）
//	│  │  ├─ Span3: SELECT ... FOR UPDATE锁定图书（耗时40ms）← 行锁等待！
//	│  │  └─ Span4: 扣减可借副本+写借阅记录（耗时10ms）
//	│  └─ Span5: 发布borrow.created事件（耗时3ms）
//
// # 使用方式
//
//	// 1. 程序启动时初始化全局Tracer Provider
//	shutdown, err := tracing.InitTracer("library-api", cfg.Tracing.Endpoint)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shutdown(context.Background())
//
//	// 2. 业务代码中创建Span
//	func (uc *CreateBorrowUseCase) Execute(ctx context.Context, ...) {
//	    ctx, span := tracing.StartSpan(ctx, "library-api", "CreateBorrow")
//	    defer span.End()
//	    span.SetAttributes(attribute.Int64("book_id", int64(bookID)))
//	    // ...
//	}
//
// 教学要点：Span命名用操作名（CreateBorrow、ReturnBook），不要把动态值
// 拼进名字里（BorrowBook-123是错的，book_id应作为属性）。敏感信息
// （密码哈希、Token）永远不要写进Span属性。
package tracing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer 初始化全局Tracer Provider
//
// 参数：
//   - serviceName: 服务名称（Jaeger UI中用于分组）
//   - endpoint: OTLP gRPC端点，形如"localhost:4317"（带http://前缀也接受，会自动剥掉）
//
// 返回的shutdown函数必须在程序退出前调用，否则可能丢失最后一批Span。
//
// 设计说明：
// 1. 使用OTLP协议而非Jaeger原生协议，厂商中立，可无缝切换到Zipkin、Datadog
// 2. 采样策略：开发环境AlwaysSample（100%），生产环境建议
//    sdktrace.TraceIDRatioBased(0.01)按比例采样
func InitTracer(serviceName, endpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// OTLP gRPC只认<host>:<port>，配置里写了URL形式也兼容处理
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // 内网collector，暂不启用TLS
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// Resource描述产生遥测数据的实体，属性附加到所有Span上
	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		// BatchSpanProcessor批量发送，默认每2秒或512个Span一批
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// 设置全局Provider后，业务代码直接otel.Tracer()获取即可
	otel.SetTracerProvider(tp)

	// W3C Trace Context负责在HTTP Header中传递traceparent
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}

	return shutdown, nil
}

// StartSpan 创建一个新的Span（便捷函数）
//
// 如果ctx已包含Span，新Span自动成为其子Span；否则成为根Span。
// 必须使用返回的ctx调用下游函数，否则调用树会断开。
//
//	func (uc *ReturnBookUseCase) Execute(ctx context.Context, ...) error {
//	    ctx, span := tracing.StartSpan(ctx, "library-api", "ReturnBook")
//	    defer span.End()
//	    // 事务内的子操作继续用这个ctx
//	    return uc.txManager.Transaction(ctx, func(txCtx context.Context) error { ... })
//	}
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName)
}

// ExtractTraceID 从Context提取TraceID（32位十六进制）
//
// 写进访问日志后，可以拿着日志里的TraceID去Jaeger UI搜完整链路：
//
//	log.Printf("trace_id=%s 借阅创建成功 borrow_id=%d", tracing.ExtractTraceID(ctx), borrowID)
func ExtractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// ExtractSpanID 从Context提取SpanID（16位十六进制）
func ExtractSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
