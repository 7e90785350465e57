package borrow

import (
	"context"

	"github.com/xiebiao/library/pkg/dates"
)

// Repository 借阅仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 带Detail后缀的方法返回关联用户、图书信息的只读视图(JOIN查询)
// 3. 写操作在事务上下文中执行时复用ctx里的事务句柄
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, record *Record) error

	// FindByID 根据ID查找借阅记录
	FindByID(ctx context.Context, id uint) (*Record, error)

	// FindDetailByID 根据ID查找借阅记录详情(含用户、图书信息)
	FindDetailByID(ctx context.Context, id uint) (*Detail, error)

	// LockByID 悲观锁查询借阅记录(归还事务中锁定行)
	// 使用SELECT FOR UPDATE,防止并发重复归还
	LockByID(ctx context.Context, id uint) (*Record, error)

	// Update 更新借阅记录(管理员修正)
	Update(ctx context.Context, record *Record) error

	// Delete 删除借阅记录(管理员清理误操作数据)
	Delete(ctx context.Context, id uint) error

	// List 查询最近的借阅记录详情(limit<=0时使用默认值)
	List(ctx context.Context, limit int) ([]*Detail, error)

	// ListByUser 查询某用户的借阅记录详情(按借出日期倒序)
	ListByUser(ctx context.Context, userID uint, limit int) ([]*Detail, error)

	// ListActive 查询所有在借记录(return_date IS NULL),按应还日期升序
	ListActive(ctx context.Context, limit int) ([]*Detail, error)

	// ListOverdue 查询截至today逾期未还的记录
	ListOverdue(ctx context.Context, today dates.Date) ([]*Detail, error)

	// RefreshOverdueStatus 把逾期未还记录的冗余status刷成overdue
	// 返回本次刷新影响的行数;重复执行是幂等的
	RefreshOverdueStatus(ctx context.Context, today dates.Date) (int64, error)
}
