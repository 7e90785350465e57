package borrow

import (
	"time"

	"github.com/xiebiao/library/pkg/dates"
)

// Status 借阅状态
type Status string

const (
	// StatusBorrowed 借出中
	StatusBorrowed Status = "borrowed"
	// StatusOverdue 已逾期(借出中且超过应还日期)
	StatusOverdue Status = "overdue"
	// StatusReturned 已归还
	StatusReturned Status = "returned"
)

// DefaultLoanPeriodDays 默认借期(天)
const DefaultLoanPeriodDays = 14

// Record 借阅记录实体(聚合根)
// DDD设计说明:
// 1. Record是借阅聚合的根实体,一条记录对应一次"借出一本"
// 2. 日期字段使用日历日(dates.Date),逾期判断与时区无关
// 3. ReturnDate为权威归还标志:nil表示在借,非nil表示已归还
//    Status是冗余的展示字段,以ReturnDate为准
type Record struct {
	ID         uint
	UserID     uint        // 借阅人
	BookID     uint        // 图书
	BorrowDate dates.Date  // 借出日期
	DueDate    dates.Date  // 应还日期(借出日期+借期)
	ReturnDate *dates.Date // 实际归还日期(nil=未归还)
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRecord 创建借阅记录(工厂方法)
// dueDate = borrowDate + loanPeriodDays
func NewRecord(userID, bookID uint, borrowDate dates.Date, loanPeriodDays int) *Record {
	if loanPeriodDays <= 0 {
		loanPeriodDays = DefaultLoanPeriodDays
	}
	now := time.Now()
	return &Record{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.AddDays(loanPeriodDays),
		Status:     StatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsReturned 是否已归还(以ReturnDate为准)
func (r *Record) IsReturned() bool {
	return r.ReturnDate != nil
}

// IsOverdue 截至today是否逾期(已归还的记录不算逾期)
func (r *Record) IsOverdue(today dates.Date) bool {
	return !r.IsReturned() && r.DueDate.Before(today)
}

// CurrentStatus 根据today推导实际状态
// 冗余的Status字段可能滞后(定时任务刷新),展示时用本方法兜底
func (r *Record) CurrentStatus(today dates.Date) Status {
	if r.IsReturned() {
		return StatusReturned
	}
	if r.IsOverdue(today) {
		return StatusOverdue
	}
	return StatusBorrowed
}

// MarkReturned 归还(领域行为)
// 业务规则:一条记录只能归还一次
func (r *Record) MarkReturned(returnDate dates.Date) error {
	if r.IsReturned() {
		return ErrAlreadyReturned
	}
	d := returnDate
	r.ReturnDate = &d
	r.Status = StatusReturned
	r.UpdatedAt = time.Now()
	return nil
}

// Detail 借阅记录详情(关联用户与图书的只读视图)
type Detail struct {
	Record
	FirstName string // 借阅人名
	LastName  string // 借阅人姓
	Email     string // 借阅人邮箱
	BookTitle string // 书名
}

// Urgency 在借记录的紧急程度(前端着色用)
type Urgency string

const (
	// UrgencyNormal 距离应还日还早
	UrgencyNormal Urgency = "normal"
	// UrgencyDueSoon 3天内到期
	UrgencyDueSoon Urgency = "due_soon"
	// UrgencyOverdue 已逾期
	UrgencyOverdue Urgency = "overdue"
)

// DueSoonThresholdDays 到期提醒阈值(天)
const DueSoonThresholdDays = 3

// ActiveLoan 在借记录视图(含剩余天数与紧急程度)
type ActiveLoan struct {
	Detail
	DaysLeft int // 距应还日剩余天数(负数表示已逾期天数)
	Urgency  Urgency
}

// ClassifyUrgency 根据剩余天数计算紧急程度
func ClassifyUrgency(daysLeft int) Urgency {
	switch {
	case daysLeft < 0:
		return UrgencyOverdue
	case daysLeft <= DueSoonThresholdDays:
		return UrgencyDueSoon
	default:
		return UrgencyNormal
	}
}
