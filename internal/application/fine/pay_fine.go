package fine

import (
	"context"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/pkg/clock"
)

// PayFineUseCase 缴纳罚款用例
// 缴清后,对应图书的归还不再被拦截
type PayFineUseCase struct {
	fineRepo  fine.Repository
	txManager shared.TxManager
	clock     clock.Clock
	notifier  event.Notifier
}

// NewPayFineUseCase 创建缴纳罚款用例
func NewPayFineUseCase(
	fineRepo fine.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
) *PayFineUseCase {
	return &PayFineUseCase{
		fineRepo:  fineRepo,
		txManager: txManager,
		clock:     clk,
		notifier:  notifier,
	}
}

// PayFineResponse 缴纳结果DTO
type PayFineResponse struct {
	FineID       uint   `json:"fine_id"`
	PaidStatus   string `json:"paid_status"`
	FinePaidDate string `json:"fine_paid_date"`
}

// Execute 缴纳罚款
// 放在事务里与还书路径互斥:还书事务持借阅行锁读罚款状态时,
// 本次状态翻转要么在其之前完整可见,要么在其之后
func (uc *PayFineUseCase) Execute(ctx context.Context, fineID uint) (*PayFineResponse, error) {
	today := uc.clock.Today()

	var paid *fine.Fine
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		f, err := uc.fineRepo.FindByID(txCtx, fineID)
		if err != nil {
			return err
		}

		if err := f.MarkPaid(today); err != nil {
			return err
		}

		if err := uc.fineRepo.Update(txCtx, f); err != nil {
			return err
		}

		paid = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = uc.notifier.Publish(ctx, event.RoutingFinePaid, event.FineEvent{
		FineID:     paid.ID,
		UserID:     paid.UserID,
		BookID:     paid.BookID,
		Amount:     paid.Amount,
		OccurredAt: uc.clock.Now(),
	})

	return &PayFineResponse{
		FineID:       paid.ID,
		PaidStatus:   string(paid.PaidStatus),
		FinePaidDate: paid.FinePaidDate.String(),
	}, nil
}
