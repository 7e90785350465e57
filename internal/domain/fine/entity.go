package fine

import (
	"time"

	"github.com/xiebiao/library/pkg/dates"
)

// PaidStatus 罚款缴纳状态
type PaidStatus string

const (
	// StatusNotPaid 未缴纳
	StatusNotPaid PaidStatus = "not paid"
	// StatusPaid 已缴纳
	StatusPaid PaidStatus = "paid"
)

// DefaultAmount 默认罚款金额(单位:分,500分=5.00元)
// 设计说明:金额使用int64存储"分"为单位,避免浮点数精度问题
const DefaultAmount int64 = 500

// Fine 罚款实体(聚合根)
// DDD设计说明:
// 1. 罚款按(UserID, BookID)关联借阅,不持有borrow_id外键:
//    同一人对同一本书最多存在一条罚款,由定时任务的NOT EXISTS保证
// 2. FineCreatedDate = 应还日期+1天(逾期首日)
// 3. FinePaidDate为nil表示未缴纳
type Fine struct {
	ID              uint
	UserID          uint
	BookID          uint
	Amount          int64 // 金额(分)
	FineCreatedDate dates.Date
	PaidStatus      PaidStatus
	FinePaidDate    *dates.Date
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewFine 创建罚款(工厂方法)
// createdDate为逾期首日(应还日期+1天),amount<=0时使用默认金额
func NewFine(userID, bookID uint, createdDate dates.Date, amount int64) *Fine {
	if amount <= 0 {
		amount = DefaultAmount
	}
	now := time.Now()
	return &Fine{
		UserID:          userID,
		BookID:          bookID,
		Amount:          amount,
		FineCreatedDate: createdDate,
		PaidStatus:      StatusNotPaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsPaid 是否已缴纳
func (f *Fine) IsPaid() bool {
	return f.PaidStatus == StatusPaid
}

// MarkPaid 缴纳罚款(领域行为)
// 业务规则:一条罚款只能缴纳一次
func (f *Fine) MarkPaid(paidDate dates.Date) error {
	if f.IsPaid() {
		return ErrFineAlreadyPaid
	}
	d := paidDate
	f.PaidStatus = StatusPaid
	f.FinePaidDate = &d
	f.UpdatedAt = time.Now()
	return nil
}

// Detail 罚款详情(关联用户与图书的只读视图)
type Detail struct {
	Fine
	FirstName string
	LastName  string
	Email     string
	BookTitle string
}

// OverdueLoan 待开罚单的逾期借阅(定时任务扫描结果)
type OverdueLoan struct {
	BorrowID uint
	UserID   uint
	BookID   uint
	DueDate  dates.Date
}

// FineCreatedDate 罚款生成日期 = 应还日期+1天
func (o OverdueLoan) FineCreatedDate() dates.Date {
	return o.DueDate.AddDays(1)
}
