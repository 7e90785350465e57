package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ManageBookUseCase 图书管理用例(管理员建档/修改/下架)
type ManageBookUseCase struct {
	bookRepo book.Repository
}

// NewManageBookUseCase 创建图书管理用例
func NewManageBookUseCase(bookRepo book.Repository) *ManageBookUseCase {
	return &ManageBookUseCase{bookRepo: bookRepo}
}

// CreateBookRequest 建档请求DTO
type CreateBookRequest struct {
	Title         string
	Author        string
	ISBN          string
	PublishedYear int
	Description   string
	CoverURL      string
	TotalCopies   int
}

// Create 图书建档
func (uc *ManageBookUseCase) Create(ctx context.Context, req CreateBookRequest) (uint, error) {
	if req.Title == "" {
		return 0, book.ErrInvalidTitle
	}
	if req.TotalCopies < 0 {
		return 0, book.ErrInvalidCopies
	}

	b := book.NewBook(req.Title, req.Author, req.ISBN, req.PublishedYear,
		req.Description, req.CoverURL, req.TotalCopies)
	if err := uc.bookRepo.Create(ctx, b); err != nil {
		return 0, err
	}

	return b.ID, nil
}

// UpdateBookRequest 修改请求DTO(空字段不修改,TotalCopies为nil时不修改)
type UpdateBookRequest struct {
	BookID        uint
	Title         string
	Author        string
	ISBN          string
	PublishedYear int
	Description   string
	CoverURL      string
	TotalCopies   *int
}

// Update 修改图书信息
// 注意:直接改TotalCopies是管理员修正库存的口子,不走借还书事务
func (uc *ManageBookUseCase) Update(ctx context.Context, req UpdateBookRequest) error {
	b, err := uc.bookRepo.FindByID(ctx, req.BookID)
	if err != nil {
		return err
	}

	b.UpdateInfo(req.Title, req.Author, req.ISBN, req.PublishedYear, req.Description, req.CoverURL)

	if req.TotalCopies != nil {
		if err := b.UpdateCopies(*req.TotalCopies); err != nil {
			return err
		}
	}

	return uc.bookRepo.Update(ctx, b)
}

// Delete 下架图书(软删除,历史借阅记录保留)
func (uc *ManageBookUseCase) Delete(ctx context.Context, id uint) error {
	return uc.bookRepo.SoftDelete(ctx, id)
}
