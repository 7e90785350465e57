package fine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
)

// TestSyncOverdue 测试逾期罚款同步
func TestSyncOverdue(t *testing.T) {
	ctx := context.Background()
	today := dates.New(2024, time.February, 1)

	newUseCase := func(fineRepo *fakeFineRepo, borrowRepo *fakeBorrowRepo, notifier *recordingNotifier) *SyncOverdueUseCase {
		return NewSyncOverdueUseCase(fineRepo, borrowRepo, clock.NewFixedDate(today), notifier, 500)
	}

	t.Run("为逾期借阅开罚单", func(t *testing.T) {
		fineRepo := &fakeFineRepo{
			overdueLoans: []fine.OverdueLoan{
				{BorrowID: 1, UserID: 7, BookID: 3, DueDate: dates.New(2024, time.January, 15)},
				{BorrowID: 2, UserID: 8, BookID: 4, DueDate: dates.New(2024, time.January, 20)},
			},
		}
		borrowRepo := &fakeBorrowRepo{}
		notifier := &recordingNotifier{}
		uc := newUseCase(fineRepo, borrowRepo, notifier)

		resp, err := uc.Execute(ctx)
		require.NoError(t, err)

		assert.True(t, resp.Synced)
		assert.Equal(t, 2, resp.TotalOverdue)
		assert.Equal(t, 2, resp.FinesCreated)
		assert.Equal(t, 1, borrowRepo.refreshCalls, "应先刷新冗余status")

		fines := fineRepo.all()
		require.Len(t, fines, 2)
		assert.Equal(t, "2024-01-16", fines[0].FineCreatedDate.String(), "罚款生成日期=应还日期+1天")
		assert.Equal(t, int64(500), fines[0].Amount)
		assert.Equal(t, fine.StatusNotPaid, fines[0].PaidStatus)
		assert.Equal(t, []string{"fine.created", "fine.created"}, notifier.published())
	})

	t.Run("重复执行是幂等的", func(t *testing.T) {
		fineRepo := &fakeFineRepo{
			overdueLoans: []fine.OverdueLoan{
				{BorrowID: 1, UserID: 7, BookID: 3, DueDate: dates.New(2024, time.January, 15)},
			},
		}
		uc := newUseCase(fineRepo, &fakeBorrowRepo{}, &recordingNotifier{})

		first, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, first.FinesCreated)

		second, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, second.TotalOverdue, "已开罚单的借阅不应再被扫到")
		assert.Equal(t, 0, second.FinesCreated)
		assert.Len(t, fineRepo.all(), 1, "罚单总数不应增加")
	})

	t.Run("单条失败不中断其余罚单", func(t *testing.T) {
		fineRepo := &fakeFineRepo{
			overdueLoans: []fine.OverdueLoan{
				{BorrowID: 1, UserID: 7, BookID: 3, DueDate: dates.New(2024, time.January, 15)},
				{BorrowID: 2, UserID: 8, BookID: 4, DueDate: dates.New(2024, time.January, 15)},
				{BorrowID: 3, UserID: 9, BookID: 5, DueDate: dates.New(2024, time.January, 15)},
			},
			failCreate: map[uint]bool{8: true},
		}
		uc := newUseCase(fineRepo, &fakeBorrowRepo{}, &recordingNotifier{})

		resp, err := uc.Execute(ctx)
		require.NoError(t, err, "单条失败不应让整次同步报错")

		assert.True(t, resp.Synced)
		assert.Equal(t, 3, resp.TotalOverdue)
		assert.Equal(t, 2, resp.FinesCreated)
	})

	t.Run("无逾期借阅时空跑", func(t *testing.T) {
		fineRepo := &fakeFineRepo{}
		notifier := &recordingNotifier{}
		uc := newUseCase(fineRepo, &fakeBorrowRepo{}, notifier)

		resp, err := uc.Execute(ctx)
		require.NoError(t, err)

		assert.True(t, resp.Synced)
		assert.Zero(t, resp.TotalOverdue)
		assert.Zero(t, resp.FinesCreated)
		assert.Empty(t, notifier.published())
	})

	t.Run("到期当天不开罚单", func(t *testing.T) {
		// due_date == today不算逾期,严格晚于才开单
		fineRepo := &fakeFineRepo{
			overdueLoans: []fine.OverdueLoan{
				{BorrowID: 1, UserID: 7, BookID: 3, DueDate: today},
			},
		}
		uc := newUseCase(fineRepo, &fakeBorrowRepo{}, &recordingNotifier{})

		resp, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Zero(t, resp.FinesCreated)
	})
}
