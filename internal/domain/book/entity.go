package book

import (
	"time"
)

// CopiesSoftDeleted 软删除哨兵值
// 设计说明:total_copies = -1 表示图书已下架(软删除),
// 历史借阅记录仍然引用该图书,因此不做物理删除
const CopiesSoftDeleted = -1

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,包含图书的核心属性
// 2. TotalCopies表示当前可借副本数:>0可借,0已全部借出,-1已下架
// 3. 副本数的扣减/归还必须通过仓储层的原子操作完成(防止并发超借)
type Book struct {
	ID            uint
	Title         string // 书名
	Author        string // 作者
	ISBN          string // ISBN号(国际标准书号)
	PublishedYear int    // 出版年份
	Description   string // 图书描述
	CoverURL      string // 封面图片URL
	TotalCopies   int    // 可借副本数(>0可借,0全部借出,-1已下架)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBook 创建新图书(工厂方法)
func NewBook(title, author, isbn string, publishedYear int, description, coverURL string, totalCopies int) *Book {
	now := time.Now()
	return &Book{
		Title:         title,
		Author:        author,
		ISBN:          isbn,
		PublishedYear: publishedYear,
		Description:   description,
		CoverURL:      coverURL,
		TotalCopies:   totalCopies,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsSoftDeleted 图书是否已下架
func (b *Book) IsSoftDeleted() bool {
	return b.TotalCopies == CopiesSoftDeleted
}

// HasAvailableCopies 当前是否有可借副本
func (b *Book) HasAvailableCopies() bool {
	return b.TotalCopies > 0
}

// CheckBorrowable 检查图书是否可借(领域行为)
// 业务规则:已下架的图书优先报"不可借",无副本报"无可借副本"
func (b *Book) CheckBorrowable() error {
	if b.IsSoftDeleted() {
		return ErrBookUnavailable
	}
	if !b.HasAvailableCopies() {
		return ErrNoCopiesAvailable
	}
	return nil
}

// UpdateInfo 更新图书基本信息
func (b *Book) UpdateInfo(title, author, isbn string, publishedYear int, description, coverURL string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if isbn != "" {
		b.ISBN = isbn
	}
	if publishedYear != 0 {
		b.PublishedYear = publishedYear
	}
	if description != "" {
		b.Description = description
	}
	if coverURL != "" {
		b.CoverURL = coverURL
	}
	b.UpdatedAt = time.Now()
}

// UpdateCopies 直接设置副本数(管理员修正库存)
// 业务规则:不允许设置为负数(-1只能通过软删除进入)
func (b *Book) UpdateCopies(total int) error {
	if total < 0 {
		return ErrInvalidCopies
	}
	b.TotalCopies = total
	b.UpdatedAt = time.Now()
	return nil
}

// MarkUnavailable 下架图书(软删除)
func (b *Book) MarkUnavailable() {
	b.TotalCopies = CopiesSoftDeleted
	b.UpdatedAt = time.Now()
}
