// Package mq RabbitMQ事件发布器(event.Notifier的实现)
package mq

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/mq"
)

// Notifier 基于RabbitMQ的事件发布器
// broker故障时熔断器打开,事件降级为日志输出,不拖慢借还书接口
type Notifier struct {
	publisher *mq.Publisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewNotifier 创建事件发布器
// cfg.MQ.Enabled为false时返回LogNotifier降级实现,本地开发不依赖MQ
func NewNotifier(cfg *config.Config) (event.Notifier, func(), error) {
	if !cfg.MQ.Enabled {
		return event.LogNotifier{}, func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		return nil, nil, err
	}

	breaker := circuitbreaker.NewCircuitBreaker("rabbitmq-publish", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		log.Printf("[mq] circuit breaker %s: %s -> %s", name, from, to)
	})

	n := &Notifier{publisher: publisher, breaker: breaker}
	cleanup := func() { _ = publisher.Close() }
	return n, cleanup, nil
}

var _ event.Notifier = (*Notifier)(nil)

// Publish 发布事件到topic交换机
// 熔断器打开期间不访问broker,事件改为落日志
func (n *Notifier) Publish(_ context.Context, routingKey string, payload interface{}) error {
	err := n.breaker.Execute(func() error {
		return n.publisher.Publish(routingKey, payload)
	})
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		log.Printf("[event] (broker unavailable) %s %+v", routingKey, payload)
		return nil
	}
	return err
}
