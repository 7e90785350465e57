package membership

import (
	"context"

	"github.com/xiebiao/library/pkg/dates"
)

// Repository 会员仓储接口(依赖倒置原则)
type Repository interface {
	// Create 创建会员记录(注册时调用)
	Create(ctx context.Context, m *Membership) error

	// FindByUserID 根据用户ID查找会员记录
	FindByUserID(ctx context.Context, userID uint) (*Membership, error)

	// FindDetailByUserID 根据用户ID查找会员详情(含用户信息与剩余天数)
	FindDetailByUserID(ctx context.Context, userID uint) (*Detail, error)

	// Update 更新会员记录(续费后持久化)
	Update(ctx context.Context, m *Membership) error

	// CreatePayment 创建缴费记录
	CreatePayment(ctx context.Context, p *Payment) error

	// ListPaymentsByUser 查询某用户的缴费记录(按周期倒序)
	ListPaymentsByUser(ctx context.Context, userID uint) ([]*Payment, error)

	// ListPayments 查询全部缴费记录(含用户姓名,收款流水页用)
	ListPayments(ctx context.Context, limit int) ([]*PaymentDetail, error)

	// RefreshExpiredStatus 把截至today已过期会员的冗余status刷成expired,返回影响行数
	RefreshExpiredStatus(ctx context.Context, today dates.Date) (int64, error)
}
