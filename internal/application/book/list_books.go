package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ListBooksUseCase 图书查询用例
type ListBooksUseCase struct {
	bookRepo book.Repository
}

// NewListBooksUseCase 创建图书查询用例
func NewListBooksUseCase(bookRepo book.Repository) *ListBooksUseCase {
	return &ListBooksUseCase{bookRepo: bookRepo}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page           int
	PageSize       int
	Keyword        string
	SortBy         string
	IncludeDeleted bool // 管理端可以看到已下架图书
}

// BookDTO 图书DTO
type BookDTO struct {
	BookID        uint   `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	PublishedYear int    `json:"published_year,omitempty"`
	Description   string `json:"description,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	TotalCopies   int    `json:"total_copies"`
	Available     bool   `json:"available"`
}

// List 分页查询图书
func (uc *ListBooksUseCase) List(ctx context.Context, req ListBooksRequest) ([]BookDTO, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	books, total, err := uc.bookRepo.List(ctx, book.ListParams{
		Page:           req.Page,
		PageSize:       req.PageSize,
		Keyword:        req.Keyword,
		SortBy:         req.SortBy,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]BookDTO, len(books))
	for i, b := range books {
		dtos[i] = toBookDTO(b)
	}

	return dtos, total, nil
}

// Get 根据ID查询图书
func (uc *ListBooksUseCase) Get(ctx context.Context, id uint) (*BookDTO, error) {
	b, err := uc.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := toBookDTO(b)
	return &dto, nil
}

func toBookDTO(b *book.Book) BookDTO {
	return BookDTO{
		BookID:        b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		Description:   b.Description,
		CoverURL:      b.CoverURL,
		TotalCopies:   b.TotalCopies,
		Available:     b.HasAvailableCopies(),
	}
}
