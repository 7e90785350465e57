package borrow

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CreateBorrowUseCase 借书用例
// 教学要点:这是整个项目最核心的用例
// 涉及:事务处理、并发控制、日历日期运算
type CreateBorrowUseCase struct {
	borrowRepo     borrow.Repository
	bookRepo       book.Repository
	txManager      shared.TxManager
	clock          clock.Clock
	notifier       event.Notifier
	loanPeriodDays int
}

// NewCreateBorrowUseCase 创建借书用例
func NewCreateBorrowUseCase(
	borrowRepo borrow.Repository,
	bookRepo book.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
	loanPeriodDays int,
) *CreateBorrowUseCase {
	return &CreateBorrowUseCase{
		borrowRepo:     borrowRepo,
		bookRepo:       bookRepo,
		txManager:      txManager,
		clock:          clk,
		notifier:       notifier,
		loanPeriodDays: loanPeriodDays,
	}
}

// CreateBorrowRequest 借书请求DTO
type CreateBorrowRequest struct {
	UserID     uint   // 借阅人ID
	BookID     uint   // 图书ID
	BorrowDate string // 借出日期(YYYY-MM-DD,可选,缺省为今天,过去/未来日期照单全收)
	DueDate    string // 应还日期(YYYY-MM-DD,可选,缺省为借出日期+借期)
}

// Execute 执行借书用例
// 教学重点:防止超借的完整流程
//
// 核心问题:最后一本副本的并发借阅
// 场景:某书只剩1本,N个人同时点借书
// 错误实现:
//  1. 查询副本数 → 1
//  2. 判断够不够 → 够
//  3. 扣减 → total_copies = total_copies - 1
//     结果:N个请求都通过了步骤2,副本数变成1-N(超借!)
//
// 正确实现:悲观锁
//  1. SELECT FOR UPDATE 锁定图书行
//  2. 校验可借性(下架/无副本)
//  3. 插入借阅记录
//  4. 扣减副本数(带余量检查的原子UPDATE,双保险)
//  5. COMMIT释放锁
//
// 只有一个请求能在锁下看到total_copies=1,其余请求拿到锁时看到0,
// 走NoCopiesAvailable分支失败
func (uc *CreateBorrowUseCase) Execute(ctx context.Context, req CreateBorrowRequest) (*BorrowDetailDTO, error) {
	// 1. 解析借出日期(缺省为今天)
	borrowDate, err := uc.resolveBorrowDate(req.BorrowDate)
	if err != nil {
		return nil, err
	}

	// 2. 可选的应还日期覆盖
	var dueOverride dates.Date
	if req.DueDate != "" {
		dueOverride, err = dates.Parse(req.DueDate)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid due date")
		}
	}

	// 借阅事务单独一个Span,行锁等待时间在追踪里一目了然
	// 未初始化Tracer时拿到的是noop span,零开销
	ctx, span := tracing.StartSpan(ctx, "library-api", "BorrowTransaction")
	defer span.End()

	start := time.Now()
	var record *borrow.Record
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 步骤1:锁定图书行(悲观锁,防止并发超借)
		// LockByID执行:SELECT * FROM books WHERE id = ? FOR UPDATE
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}

		// 步骤2:校验可借性
		// 教学要点:必须在锁定后校验,否则可能并发扣减导致超借
		if err := b.CheckBorrowable(); err != nil {
			return err
		}

		// 步骤3:创建借阅记录
		record = borrow.NewRecord(req.UserID, req.BookID, borrowDate, uc.loanPeriodDays)
		if !dueOverride.IsZero() {
			record.DueDate = dueOverride
		}
		if err := uc.borrowRepo.Create(txCtx, record); err != nil {
			return err
		}

		// 步骤4:扣减副本数
		// 带余量检查的原子UPDATE,即使锁逻辑出错也不会扣成负数
		return uc.bookRepo.AdjustCopies(txCtx, req.BookID, -1)
	})
	metrics.ObserveHistogram(metrics.BorrowTxDuration, time.Since(start).Seconds())

	if err != nil {
		uc.countResult(err)
		return nil, err
	}

	metrics.IncCounterVec(metrics.BorrowsTotal, map[string]string{"result": "created"})

	// 事件发布失败不影响借书结果
	_ = uc.notifier.Publish(ctx, event.RoutingBorrowCreated, event.BorrowEvent{
		BorrowID:   record.ID,
		UserID:     record.UserID,
		BookID:     record.BookID,
		DueDate:    record.DueDate.String(),
		OccurredAt: uc.clock.Now(),
	})

	// 提交后再查一次JOIN视图:响应与列表接口同构,带借阅人与书名展示字段
	detail, err := uc.borrowRepo.FindDetailByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	dto := toDetailDTO(detail, uc.clock.Today())
	return &dto, nil
}

// resolveBorrowDate 解析借出日期
// 过去或未来的日期都接受——补录历史借阅是合法操作
func (uc *CreateBorrowUseCase) resolveBorrowDate(s string) (dates.Date, error) {
	if s == "" {
		return uc.clock.Today(), nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return dates.Date{}, borrow.ErrInvalidBorrowDate
	}
	return d, nil
}

// countResult 按失败原因打点
func (uc *CreateBorrowUseCase) countResult(err error) {
	result := "error"
	switch {
	case errors.Is(err, book.ErrNoCopiesAvailable):
		result = "no_copies"
	case errors.Is(err, book.ErrBookUnavailable):
		result = "unavailable"
	case errors.Is(err, book.ErrBookNotFound):
		result = "not_found"
	}
	metrics.IncCounterVec(metrics.BorrowsTotal, map[string]string{"result": result})
}
