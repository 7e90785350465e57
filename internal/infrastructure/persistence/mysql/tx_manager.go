package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/shared"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// txKey context中事务DB的键类型(避免与其他包的key冲突)
type txKey struct{}

// TxManager 事务管理器(shared.TxManager的GORM实现)
// 教学要点:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 每个事务开头设置innodb_lock_wait_timeout,
//    行锁等待超过阈值时MySQL报1205错误,转换为可重试的ErrLockTimeout
type TxManager struct {
	db              *gorm.DB
	lockWaitTimeout time.Duration
}

// NewTxManager 创建事务管理器
// lockWaitTimeout<=0时使用MySQL默认值(50秒,对交互式API太长,建议配置5s)
func NewTxManager(db *gorm.DB, lockWaitTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockWaitTimeout: lockWaitTimeout}
}

var _ shared.TxManager = (*TxManager)(nil)

// Transaction 执行事务
// 教学要点:
// 1. fn函数内的所有Repository操作都会在同一事务中执行
// 2. fn返回error时自动ROLLBACK,返回nil时自动COMMIT
// 3. 通过context.WithValue传递事务DB,Repository的getDB会提取
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    // 1. 锁定图书行
//	    b, err := bookRepo.LockByID(ctx, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    // 2. 创建借阅记录
//	    if err := borrowRepo.Create(ctx, record); err != nil {
//	        return err // 自动回滚
//	    }
//	    // 3. 扣减副本数
//	    return bookRepo.AdjustCopies(ctx, bookID, -1)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁等待超时只影响当前会话,不改全局变量
		if m.lockWaitTimeout > 0 {
			seconds := int(m.lockWaitTimeout / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			if err := tx.Exec("SET innodb_lock_wait_timeout = ?", seconds).Error; err != nil {
				return apperrors.Wrap(err, "failed to set lock wait timeout")
			}
		}

		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})

	// 1205: Lock wait timeout exceeded——持锁事务未及时结束,调用方应重试
	if isLockWaitTimeout(err) {
		return apperrors.ErrLockTimeout
	}
	return err
}

// getDB 从context获取事务DB,没有事务时使用fallback
// 教学要点:事务传递机制——所有Repository共用这一个入口
func getDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
