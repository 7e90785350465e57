// Package event 定义业务事件及其发布接口
//
// 设计说明:
// 1. 借书、还书、罚款等动作产生事件,供下游消费(邮件提醒、报表)
// 2. Notifier是应用层接口,RabbitMQ实现在infrastructure层
// 3. 事件发布失败只记日志不回滚业务——事件是尽力而为的通知,不是账本
package event

import (
	"context"
	"log"
	"time"
)

// 路由键定义(topic交换机,消费方按模式订阅,如borrow.*)
const (
	RoutingBorrowCreated      = "borrow.created"
	RoutingBorrowReturned     = "borrow.returned"
	RoutingFineCreated        = "fine.created"
	RoutingFinePaid           = "fine.paid"
	RoutingMembershipExtended = "membership.extended"
)

// BorrowEvent 借还书事件
type BorrowEvent struct {
	BorrowID   uint      `json:"borrow_id"`
	UserID     uint      `json:"user_id"`
	BookID     uint      `json:"book_id"`
	DueDate    string    `json:"due_date,omitempty"`
	ReturnDate string    `json:"return_date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MembershipEvent 会员续费事件
type MembershipEvent struct {
	MembershipID uint      `json:"membership_id"`
	UserID       uint      `json:"user_id"`
	NewEndDate   string    `json:"new_end_date"`
	Amount       int64     `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// FineEvent 罚款事件
type FineEvent struct {
	FineID     uint      `json:"fine_id"`
	UserID     uint      `json:"user_id"`
	BookID     uint      `json:"book_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier 事件发布接口
type Notifier interface {
	// Publish 发布事件,routingKey为上面定义的常量之一
	// payload会被JSON序列化
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// LogNotifier 仅打日志的实现(MQ未启用时的降级方案)
type LogNotifier struct{}

// Publish 打印事件到标准日志
func (LogNotifier) Publish(_ context.Context, routingKey string, payload interface{}) error {
	log.Printf("[event] %s %+v", routingKey, payload)
	return nil
}
