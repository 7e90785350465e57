package fine

import (
	"context"

	"github.com/xiebiao/library/pkg/dates"
)

// Repository 罚款仓储接口(依赖倒置原则)
type Repository interface {
	// Create 创建罚款
	Create(ctx context.Context, f *Fine) error

	// FindByID 根据ID查找罚款
	FindByID(ctx context.Context, id uint) (*Fine, error)

	// FindDetailByID 根据ID查找罚款详情(含用户、图书信息)
	FindDetailByID(ctx context.Context, id uint) (*Detail, error)

	// Update 更新罚款(缴纳后持久化)
	Update(ctx context.Context, f *Fine) error

	// Delete 删除罚款(管理员撤销误开罚单)
	Delete(ctx context.Context, id uint) error

	// List 查询罚款详情列表(按生成日期倒序)
	List(ctx context.Context, limit int) ([]*Detail, error)

	// ListByUser 查询某用户的罚款详情
	ListByUser(ctx context.Context, userID uint) ([]*Detail, error)

	// ListUnpaid 查询所有未缴纳罚款详情
	ListUnpaid(ctx context.Context, limit int) ([]*Detail, error)

	// CountUnpaid 统计(userID, bookID)组合的未缴罚款数量
	// 归还事务中调用,用于判断是否阻止归还
	CountUnpaid(ctx context.Context, userID, bookID uint) (int64, error)

	// ListOverdueLoansWithoutFine 扫描逾期未还且尚无罚款的借阅
	// 通过NOT EXISTS排除已有(user_id, book_id)罚款的记录,保证定时任务幂等
	ListOverdueLoansWithoutFine(ctx context.Context, today dates.Date) ([]OverdueLoan, error)
}
