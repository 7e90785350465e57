package fine

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/metrics"
)

// SyncOverdueUseCase 逾期罚款同步用例(定时任务/手动触发)
// 教学要点:
// 1. 幂等性——仓储层的NOT EXISTS保证同一(user, book)只开一张罚单,
//    连续执行两次,第二次finesCreated必为0
// 2. 单条隔离——每张罚单独立插入,一条失败不中断其余,最后汇总上报
// 3. 不用大事务包住整个扫描:批量越大锁越多,与借还书路径冲突越久
type SyncOverdueUseCase struct {
	fineRepo   fine.Repository
	borrowRepo borrow.Repository
	clock      clock.Clock
	notifier   event.Notifier
	fineAmount int64
}

// NewSyncOverdueUseCase 创建逾期同步用例
func NewSyncOverdueUseCase(
	fineRepo fine.Repository,
	borrowRepo borrow.Repository,
	clk clock.Clock,
	notifier event.Notifier,
	fineAmount int64,
) *SyncOverdueUseCase {
	return &SyncOverdueUseCase{
		fineRepo:   fineRepo,
		borrowRepo: borrowRepo,
		clock:      clk,
		notifier:   notifier,
		fineAmount: fineAmount,
	}
}

// SyncOverdueResponse 同步结果汇总DTO
type SyncOverdueResponse struct {
	Synced       bool `json:"synced"`       // 扫描是否完整执行(单条失败不影响)
	TotalOverdue int  `json:"totalOverdue"` // 本次扫到的待开罚单数
	FinesCreated int  `json:"finesCreated"` // 实际创建的罚单数
}

// Execute 执行逾期同步
//
// 流程:
//  1. 刷新借阅记录的冗余status(borrowed→overdue)
//  2. 扫描逾期未还且尚无罚款的借阅(NOT EXISTS去重)
//  3. 逐条创建罚单,fine_created_date = due_date + 1天
func (uc *SyncOverdueUseCase) Execute(ctx context.Context) (*SyncOverdueResponse, error) {
	start := time.Now()
	metrics.IncCounter(metrics.SweepRunsTotal)
	defer func() {
		metrics.ObserveHistogram(metrics.SweepDuration, time.Since(start).Seconds())
	}()

	today := uc.clock.Today()

	// 1. 冗余status刷新(失败不致命,status只是展示字段)
	if _, err := uc.borrowRepo.RefreshOverdueStatus(ctx, today); err != nil {
		log.Printf("[sweep] failed to refresh overdue status: %v", err)
	}

	// 2. 扫描待开罚单的逾期借阅
	loans, err := uc.fineRepo.ListOverdueLoansWithoutFine(ctx, today)
	if err != nil {
		return nil, err
	}

	// 3. 逐条开罚单(单条失败只记日志,不中断)
	created := 0
	for _, loan := range loans {
		f := fine.NewFine(loan.UserID, loan.BookID, loan.FineCreatedDate(), uc.fineAmount)
		if err := uc.fineRepo.Create(ctx, f); err != nil {
			metrics.IncCounter(metrics.SweepFailuresTotal)
			log.Printf("[sweep] failed to create fine for borrow %d (user %d, book %d): %v",
				loan.BorrowID, loan.UserID, loan.BookID, err)
			continue
		}
		created++

		_ = uc.notifier.Publish(ctx, event.RoutingFineCreated, event.FineEvent{
			FineID:     f.ID,
			UserID:     f.UserID,
			BookID:     f.BookID,
			Amount:     f.Amount,
			OccurredAt: uc.clock.Now(),
		})
	}

	metrics.AddCounter(metrics.SweepFinesCreated, float64(created))

	return &SyncOverdueResponse{
		Synced:       true,
		TotalOverdue: len(loans),
		FinesCreated: created,
	}, nil
}
