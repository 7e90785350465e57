package membership

import (
	"time"

	"github.com/xiebiao/library/pkg/dates"
)

// Status 会员状态
type Status string

const (
	// StatusActive 有效
	StatusActive Status = "active"
	// StatusExpired 已过期
	StatusExpired Status = "expired"
)

// AnnualFee 年费(单位:分,2000分=20.00元)
const AnnualFee int64 = 2000

// Membership 会员资格实体(聚合根)
// 设计说明:
// 1. 每个用户恰好一条会员记录,注册时创建,续费只更新EndDate
// 2. Status是冗余字段,以EndDate与当天的比较为准
type Membership struct {
	ID        uint
	UserID    uint
	StartDate dates.Date
	EndDate   dates.Date
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMembership 创建新会员(注册时调用,有效期1年)
func NewMembership(userID uint, startDate dates.Date) *Membership {
	now := time.Now()
	return &Membership{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   startDate.AddYears(1),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired 截至today是否过期
func (m *Membership) IsExpired(today dates.Date) bool {
	return m.EndDate.Before(today)
}

// CurrentStatus 根据today推导实际状态
func (m *Membership) CurrentStatus(today dates.Date) Status {
	if m.IsExpired(today) {
		return StatusExpired
	}
	return StatusActive
}

// DaysLeft 距到期剩余天数(负数表示已过期天数)
func (m *Membership) DaysLeft(today dates.Date) int {
	return today.DaysUntil(m.EndDate)
}

// Extend 续费一年(领域行为)
// 业务规则:
// - 未过期:在原EndDate基础上顺延,缴费周期为[旧EndDate, 新EndDate]
// - 已过期:从today重新起算,StartDate重置为today
// 返回本次缴费对应的周期,用于生成缴费记录
func (m *Membership) Extend(today dates.Date) (periodStart, periodEnd dates.Date) {
	if m.IsExpired(today) {
		m.StartDate = today
		periodStart = today
	} else {
		periodStart = m.EndDate
	}
	periodEnd = periodStart.AddYears(1)
	m.EndDate = periodEnd
	m.Status = StatusActive
	m.UpdatedAt = time.Now()
	return periodStart, periodEnd
}

// Payment 会员缴费记录
type Payment struct {
	ID          uint
	UserID      uint
	Amount      int64 // 金额(分)
	PeriodStart dates.Date
	PeriodEnd   dates.Date
	PaymentDate time.Time
}

// NewPayment 创建缴费记录
func NewPayment(userID uint, amount int64, periodStart, periodEnd dates.Date) *Payment {
	if amount <= 0 {
		amount = AnnualFee
	}
	return &Payment{
		UserID:      userID,
		Amount:      amount,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PaymentDate: time.Now(),
	}
}

// PaymentDetail 缴费记录详情(关联用户姓名的只读视图)
type PaymentDetail struct {
	Payment
	FirstName string
	LastName  string
}

// Detail 会员详情(关联用户信息的只读视图)
type Detail struct {
	Membership
	FirstName string
	LastName  string
	Email     string
}
