package borrow

import (
	"context"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/pkg/clock"
)

// GetBorrowUseCase 查询单条借阅记录用例
type GetBorrowUseCase struct {
	borrowRepo borrow.Repository
	clock      clock.Clock
}

// NewGetBorrowUseCase 创建查询用例
func NewGetBorrowUseCase(borrowRepo borrow.Repository, clk clock.Clock) *GetBorrowUseCase {
	return &GetBorrowUseCase{borrowRepo: borrowRepo, clock: clk}
}

// Execute 根据ID查询借阅记录详情
func (uc *GetBorrowUseCase) Execute(ctx context.Context, id uint) (*BorrowDetailDTO, error) {
	detail, err := uc.borrowRepo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := toDetailDTO(detail, uc.clock.Today())
	return &dto, nil
}
