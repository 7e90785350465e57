package borrow

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// ReturnBookUseCase 还书用例
// 教学要点:
// 1. 借阅行锁保证"只归还一次",重复归还不会二次加库存
// 2. 逾期记录有未缴罚款时整个事务回滚,书仍算在借
type ReturnBookUseCase struct {
	borrowRepo borrow.Repository
	bookRepo   book.Repository
	fineRepo   fine.Repository
	txManager  shared.TxManager
	clock      clock.Clock
	notifier   event.Notifier
}

// NewReturnBookUseCase 创建还书用例
func NewReturnBookUseCase(
	borrowRepo borrow.Repository,
	bookRepo book.Repository,
	fineRepo fine.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
) *ReturnBookUseCase {
	return &ReturnBookUseCase{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		fineRepo:   fineRepo,
		txManager:  txManager,
		clock:      clk,
		notifier:   notifier,
	}
}

// ReturnBookRequest 还书请求DTO
type ReturnBookRequest struct {
	BorrowID   uint   // 借阅记录ID
	ReturnDate string // 归还日期(YYYY-MM-DD,可选,缺省为今天)
}

// Execute 执行还书用例
//
// 事务内流程:
//  1. SELECT FOR UPDATE 锁定借阅记录行
//  2. 已归还 → AlreadyReturned(幂等保护,防止二次加库存)
//  3. 逾期判断:due_date < today(日历日比较)
//     逾期且该(user, book)存在未缴罚款 → UnpaidFines,整个事务回滚
//  4. 写入return_date与status
//  5. 图书副本数+1
//
// 教学要点:罚款检查必须在借阅行锁之内——
// 否则"检查无罚款"与"写入归还"之间,定时任务可能插入新罚款,
// 产生"有罚款却还了书"的不一致判定
func (uc *ReturnBookUseCase) Execute(ctx context.Context, req ReturnBookRequest) (*BorrowDetailDTO, error) {
	today := uc.clock.Today()

	returnDate := today
	if req.ReturnDate != "" {
		var err error
		returnDate, err = dates.Parse(req.ReturnDate)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid return date")
		}
	}

	start := time.Now()
	var record *borrow.Record
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 步骤1:锁定借阅记录
		r, err := uc.borrowRepo.LockByID(txCtx, req.BorrowID)
		if err != nil {
			return err
		}

		// 步骤2:幂等保护
		if r.IsReturned() {
			return borrow.ErrAlreadyReturned
		}

		// 步骤3:逾期记录的罚款拦截
		if r.IsOverdue(today) {
			count, err := uc.fineRepo.CountUnpaid(txCtx, r.UserID, r.BookID)
			if err != nil {
				return err
			}
			if count > 0 {
				return borrow.ErrUnpaidFines
			}
		}

		// 步骤4:标记归还
		if err := r.MarkReturned(returnDate); err != nil {
			return err
		}
		if err := uc.borrowRepo.Update(txCtx, r); err != nil {
			return err
		}

		// 步骤5:副本数+1
		// 已下架图书(-1)不加回——书归还给一本隐藏的书,保持隐藏
		b, err := uc.bookRepo.LockByID(txCtx, r.BookID)
		if err != nil {
			return err
		}
		if !b.IsSoftDeleted() {
			if err := uc.bookRepo.AdjustCopies(txCtx, r.BookID, 1); err != nil {
				return err
			}
		}

		record = r
		return nil
	})
	metrics.ObserveHistogram(metrics.BorrowTxDuration, time.Since(start).Seconds())

	if err != nil {
		uc.countResult(err)
		return nil, err
	}

	metrics.IncCounterVec(metrics.ReturnsTotal, map[string]string{"result": "returned"})

	_ = uc.notifier.Publish(ctx, event.RoutingBorrowReturned, event.BorrowEvent{
		BorrowID:   record.ID,
		UserID:     record.UserID,
		BookID:     record.BookID,
		ReturnDate: record.ReturnDate.String(),
		OccurredAt: uc.clock.Now(),
	})

	// 归还响应同样返回JOIN视图,前端列表可直接原位替换该行
	detail, err := uc.borrowRepo.FindDetailByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	dto := toDetailDTO(detail, today)
	return &dto, nil
}

// countResult 按失败原因打点
func (uc *ReturnBookUseCase) countResult(err error) {
	result := "error"
	switch {
	case errors.Is(err, borrow.ErrAlreadyReturned):
		result = "already_returned"
	case errors.Is(err, borrow.ErrUnpaidFines):
		result = "blocked_by_fines"
	case errors.Is(err, borrow.ErrRecordNotFound):
		result = "not_found"
	}
	metrics.IncCounterVec(metrics.ReturnsTotal, map[string]string{"result": result})
}
