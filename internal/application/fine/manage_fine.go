package fine

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ManageFineUseCase 罚款管理用例(管理员手工开单/撤单)
type ManageFineUseCase struct {
	fineRepo fine.Repository
	clock    clock.Clock
}

// NewManageFineUseCase 创建罚款管理用例
func NewManageFineUseCase(fineRepo fine.Repository, clk clock.Clock) *ManageFineUseCase {
	return &ManageFineUseCase{fineRepo: fineRepo, clock: clk}
}

// CreateFineRequest 手工开罚单请求DTO
type CreateFineRequest struct {
	UserID          uint
	BookID          uint
	Amount          int64  // 分,<=0时用默认金额
	FineCreatedDate string // YYYY-MM-DD,可选,缺省为今天
}

// Create 手工创建罚款
// 不做(user, book)去重——行政开单允许对同一本书多次处罚,
// 自动去重只约束定时任务
func (uc *ManageFineUseCase) Create(ctx context.Context, req CreateFineRequest) (uint, error) {
	createdDate := uc.clock.Today()
	if req.FineCreatedDate != "" {
		var err error
		createdDate, err = dates.Parse(req.FineCreatedDate)
		if err != nil {
			return 0, apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid fine date")
		}
	}

	f := fine.NewFine(req.UserID, req.BookID, createdDate, req.Amount)
	if err := uc.fineRepo.Create(ctx, f); err != nil {
		return 0, err
	}

	return f.ID, nil
}

// UpdateFineRequest 修正罚单请求DTO(零值字段保持不变)
type UpdateFineRequest struct {
	FineID     uint
	UserID     uint   // >0时改挂账用户
	BookID     uint   // >0时改关联图书
	Amount     int64  // >0时修正金额(分)
	PaidStatus string // paid / not paid,空串保持不变
}

// Update 修正罚单
// 行政修正不发fine.paid事件,对账流水以缴费接口为准
func (uc *ManageFineUseCase) Update(ctx context.Context, req UpdateFineRequest) error {
	f, err := uc.fineRepo.FindByID(ctx, req.FineID)
	if err != nil {
		return err
	}

	if req.UserID > 0 {
		f.UserID = req.UserID
	}
	if req.BookID > 0 {
		f.BookID = req.BookID
	}
	if req.Amount > 0 {
		f.Amount = req.Amount
	}

	switch req.PaidStatus {
	case "":
		// 缴纳状态不变
	case string(fine.StatusPaid):
		if !f.IsPaid() {
			paidDate := uc.clock.Today()
			f.PaidStatus = fine.StatusPaid
			f.FinePaidDate = &paidDate
		}
	case string(fine.StatusNotPaid):
		// 改回未缴时清掉缴费日期,避免"未缴却有缴费日期"的脏数据
		f.PaidStatus = fine.StatusNotPaid
		f.FinePaidDate = nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid paid status")
	}

	f.UpdatedAt = time.Now()
	return uc.fineRepo.Update(ctx, f)
}

// Delete 撤销罚款
func (uc *ManageFineUseCase) Delete(ctx context.Context, id uint) error {
	return uc.fineRepo.Delete(ctx, id)
}
