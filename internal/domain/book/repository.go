package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书(不含已下架图书时由调用方判断)
	FindByID(ctx context.Context, id uint) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// SoftDelete 下架图书(total_copies置为-1,保留历史借阅记录)
	SoftDelete(ctx context.Context, id uint) error

	// List 分页查询图书列表(默认排除已下架图书)
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID 悲观锁查询图书(借书事务中锁定行)
	// 使用SELECT FOR UPDATE锁定行,防止并发超借
	LockByID(ctx context.Context, id uint) (*Book, error)

	// AdjustCopies 调整可借副本数(原子操作)
	// delta为正数表示归还,负数表示借出
	// 内部保证调整后不为负,不足则返回ErrNoCopiesAvailable
	AdjustCopies(ctx context.Context, id uint, delta int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page           int    // 页码(从1开始)
	PageSize       int    // 每页数量
	Keyword        string // 搜索关键词(搜索标题、作者、ISBN)
	SortBy         string // 排序字段(title_asc, created_at_desc, year_desc)
	IncludeDeleted bool   // 是否包含已下架图书(管理端用)
}
