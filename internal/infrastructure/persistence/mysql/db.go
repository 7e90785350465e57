package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/dates"
)

// NewDB 创建数据库连接
// 设计说明:
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数(MaxOpenConns、MaxIdleConns、ConnMaxLifetime)
// 3. 开发环境开启SQL日志,生产环境关闭
// 4. 自动迁移表结构(AutoMigrate)
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 连接池配置
	// 学习要点:合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✓ database connected")

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 学习要点:
// 1. AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本,不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&BorrowRecordModel{},
		&FineModel{},
		&MembershipModel{},
		&MembershipPaymentModel{},
	)
}

// UserModel GORM用户模型
// 设计说明:
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain/user/entity.go是领域实体,不依赖GORM
// 3. Repository负责两者之间的转换
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码(bcrypt加密)"`
	FirstName string    `gorm:"size:50;comment:名"`
	LastName  string    `gorm:"size:50;comment:姓"`
	Role      string    `gorm:"size:20;not null;default:user;comment:角色(user/admin)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 设计说明:
// 1. TotalCopies表示可借副本数:>0可借,0全部借出,-1已下架
//    软删除用哨兵值而非gorm.DeletedAt——历史借阅记录仍需JOIN到已下架图书
// 2. ISBN有唯一索引,防止重复
type BookModel struct {
	ID            uint      `gorm:"primaryKey"`
	Title         string    `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author        string    `gorm:"index:idx_search;size:100;comment:作者"`
	ISBN          string    `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	PublishedYear int       `gorm:"comment:出版年份"`
	Description   string    `gorm:"type:text;comment:图书描述"`
	CoverURL      string    `gorm:"size:500;comment:封面图片URL"`
	TotalCopies   int       `gorm:"not null;default:0;comment:可借副本数(-1表示已下架)"`
	CreatedAt     time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// BorrowRecordModel GORM借阅记录模型
// 教学要点:
// 1. 日期列使用MySQL的DATE类型(dates.Date实现了Scanner/Valuer)
// 2. ReturnDate为NULL表示在借,是归还与否的权威标志
// 3. (user_id, book_id)复合索引服务归还时的罚款检查与罚单扫描
type BorrowRecordModel struct {
	ID         uint        `gorm:"primaryKey"`
	UserID     uint        `gorm:"index:idx_user_book;not null;comment:借阅人ID"`
	BookID     uint        `gorm:"index:idx_user_book;index;not null;comment:图书ID"`
	BorrowDate dates.Date  `gorm:"type:date;not null;comment:借出日期"`
	DueDate    dates.Date  `gorm:"type:date;index;not null;comment:应还日期"`
	ReturnDate *dates.Date `gorm:"type:date;comment:归还日期(NULL=在借)"`
	Status     string      `gorm:"size:20;index;not null;default:borrowed;comment:状态(borrowed/overdue/returned)"`
	CreatedAt  time.Time   `gorm:"comment:创建时间"`
	UpdatedAt  time.Time   `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BorrowRecordModel) TableName() string {
	return "borrow_records"
}

// FineModel GORM罚款模型
// 教学要点:
// 1. 金额使用int64存储"分"为单位
// 2. (user_id, book_id)索引服务"同一人同一本书最多一条罚款"的NOT EXISTS查询
type FineModel struct {
	ID              uint        `gorm:"primaryKey"`
	UserID          uint        `gorm:"index:idx_fine_user_book;not null;comment:用户ID"`
	BookID          uint        `gorm:"index:idx_fine_user_book;not null;comment:图书ID"`
	Amount          int64       `gorm:"not null;comment:金额(分)"`
	FineCreatedDate dates.Date  `gorm:"type:date;not null;comment:罚款生成日期(应还日期+1天)"`
	PaidStatus      string      `gorm:"size:20;index;not null;default:'not paid';comment:缴纳状态(not paid/paid)"`
	FinePaidDate    *dates.Date `gorm:"type:date;comment:缴纳日期"`
	CreatedAt       time.Time   `gorm:"comment:创建时间"`
	UpdatedAt       time.Time   `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (FineModel) TableName() string {
	return "fines"
}

// MembershipModel GORM会员模型
// 每个用户恰好一条记录(user_id唯一索引),续费只更新end_date
type MembershipModel struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex;not null;comment:用户ID"`
	StartDate dates.Date `gorm:"type:date;not null;comment:起始日期"`
	EndDate   dates.Date `gorm:"type:date;not null;comment:到期日期"`
	Status    string     `gorm:"size:20;not null;default:active;comment:状态(active/expired)"`
	CreatedAt time.Time  `gorm:"comment:创建时间"`
	UpdatedAt time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (MembershipModel) TableName() string {
	return "memberships"
}

// MembershipPaymentModel GORM会员缴费记录模型
type MembershipPaymentModel struct {
	ID          uint       `gorm:"primaryKey"`
	UserID      uint       `gorm:"index;not null;comment:用户ID"`
	Amount      int64      `gorm:"not null;comment:金额(分)"`
	PeriodStart dates.Date `gorm:"type:date;not null;comment:缴费周期起"`
	PeriodEnd   dates.Date `gorm:"type:date;not null;comment:缴费周期止"`
	PaymentDate time.Time  `gorm:"not null;comment:缴费时间"`
}

// TableName 指定表名
func (MembershipPaymentModel) TableName() string {
	return "membership_payments"
}
