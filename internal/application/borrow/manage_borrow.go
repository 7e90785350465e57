package borrow

import (
	"context"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ManageBorrowUseCase 借阅记录管理用例(管理员)
// 设计说明:这是行政修正入口,不承担账本一致性——
// 修改日期不重算罚款,删除记录不回滚库存
type ManageBorrowUseCase struct {
	borrowRepo borrow.Repository
}

// NewManageBorrowUseCase 创建管理用例
func NewManageBorrowUseCase(borrowRepo borrow.Repository) *ManageBorrowUseCase {
	return &ManageBorrowUseCase{borrowRepo: borrowRepo}
}

// UpdateBorrowRequest 修改借阅记录请求DTO(空字段不修改)
type UpdateBorrowRequest struct {
	BorrowID   uint
	BorrowDate string // YYYY-MM-DD
	DueDate    string // YYYY-MM-DD
}

// Update 修改借阅记录的日期字段
func (uc *ManageBorrowUseCase) Update(ctx context.Context, req UpdateBorrowRequest) error {
	record, err := uc.borrowRepo.FindByID(ctx, req.BorrowID)
	if err != nil {
		return err
	}

	if req.BorrowDate != "" {
		d, err := dates.Parse(req.BorrowDate)
		if err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid borrow date")
		}
		record.BorrowDate = d
	}

	if req.DueDate != "" {
		d, err := dates.Parse(req.DueDate)
		if err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid due date")
		}
		record.DueDate = d
	}

	return uc.borrowRepo.Update(ctx, record)
}

// Delete 删除借阅记录
func (uc *ManageBorrowUseCase) Delete(ctx context.Context, id uint) error {
	return uc.borrowRepo.Delete(ctx, id)
}
