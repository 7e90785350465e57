package shared

import (
	"context"
)

// TxManager 事务管理器接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(GORM事务)
// 2. application层通过接口声明事务边界,不依赖具体数据库实现
// 3. 测试时可以用内存实现替换,验证事务内的业务规则
type TxManager interface {
	// Transaction 在事务中执行函数
	// fn返回error时整个事务回滚,返回nil时提交
	// 事务句柄通过ctx传递给仓储层
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
