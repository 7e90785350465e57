package borrow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
)

func newCreateBorrowFixture(b *book.Book) (*CreateBorrowUseCase, *fakeBorrowRepo, *fakeBookRepo, *recordingNotifier) {
	borrowRepo := newFakeBorrowRepo()
	bookRepo := newFakeBookRepo(b)
	notifier := &recordingNotifier{}
	clk := clock.NewFixedDate(dates.New(2024, time.January, 1))
	uc := NewCreateBorrowUseCase(borrowRepo, bookRepo, &fakeTxManager{}, clk, notifier, 14)
	return uc, borrowRepo, bookRepo, notifier
}

// TestCreateBorrow 测试借书用例
func TestCreateBorrow(t *testing.T) {
	ctx := context.Background()

	t.Run("正常借书_缺省日期", func(t *testing.T) {
		uc, _, bookRepo, notifier := newCreateBorrowFixture(&book.Book{ID: 1, Title: "Go程序设计", TotalCopies: 3})

		resp, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1})
		require.NoError(t, err)

		assert.Equal(t, "2024-01-01", resp.BorrowDate, "缺省借出日期应为今天")
		assert.Equal(t, "2024-01-15", resp.DueDate, "应还日期应为借出日期+14天")
		assert.Equal(t, "borrowed", resp.Status)
		assert.NotZero(t, resp.BorrowID)
		assert.Equal(t, 2, bookRepo.copies(1), "副本数应扣减1")
		assert.Equal(t, []string{"borrow.created"}, notifier.published())
	})

	t.Run("指定借出日期与应还日期", func(t *testing.T) {
		uc, _, _, _ := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: 1})

		resp, err := uc.Execute(ctx, CreateBorrowRequest{
			UserID:     7,
			BookID:     1,
			BorrowDate: "2023-12-20",
			DueDate:    "2024-01-05",
		})
		require.NoError(t, err)

		assert.Equal(t, "2023-12-20", resp.BorrowDate, "补录过去日期应被接受")
		assert.Equal(t, "2024-01-05", resp.DueDate, "显式应还日期应覆盖默认借期")
	})

	t.Run("响应携带借阅人与书名展示字段", func(t *testing.T) {
		uc, borrowRepo, _, _ := newCreateBorrowFixture(&book.Book{ID: 1, Title: "Go程序设计", TotalCopies: 1})
		borrowRepo.setMember(7, "Wei", "Chen", "weichen@example.com")
		borrowRepo.setBookTitle(1, "Go程序设计")

		resp, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1})
		require.NoError(t, err)

		assert.Equal(t, "Wei Chen", resp.MemberName, "借书响应应带借阅人姓名")
		assert.Equal(t, "weichen@example.com", resp.Email)
		assert.Equal(t, "Go程序设计", resp.BookTitle, "借书响应应带书名")
	})

	t.Run("图书不存在", func(t *testing.T) {
		uc, borrowRepo, _, notifier := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: 1})

		_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 999})
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.Zero(t, borrowRepo.count(), "失败时不应产生借阅记录")
		assert.Empty(t, notifier.published(), "失败时不应发布事件")
	})

	t.Run("无可借副本", func(t *testing.T) {
		uc, borrowRepo, bookRepo, _ := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: 0})

		_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1})
		assert.ErrorIs(t, err, book.ErrNoCopiesAvailable)
		assert.Zero(t, borrowRepo.count())
		assert.Equal(t, 0, bookRepo.copies(1), "副本数不应变化")
	})

	t.Run("已下架图书不可借", func(t *testing.T) {
		uc, _, _, _ := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: book.CopiesSoftDeleted})

		_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1})
		assert.ErrorIs(t, err, book.ErrBookUnavailable, "下架优先于无副本")
	})

	t.Run("非法借出日期", func(t *testing.T) {
		uc, _, _, _ := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: 1})

		_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1, BorrowDate: "01/02/2024"})
		assert.ErrorIs(t, err, borrow.ErrInvalidBorrowDate)
	})

	t.Run("非法应还日期", func(t *testing.T) {
		uc, _, _, _ := newCreateBorrowFixture(&book.Book{ID: 1, TotalCopies: 1})

		_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: 7, BookID: 1, DueDate: "not-a-date"})
		assert.Error(t, err)
	})
}

// TestCreateBorrowConcurrency 测试并发借阅防超借
//
// 场景:某书只剩5本副本,20个请求同时借阅
// 预期:恰好5个成功,15个因无副本失败,副本数归零不为负
func TestCreateBorrowConcurrency(t *testing.T) {
	ctx := context.Background()
	uc, borrowRepo, bookRepo, _ := newCreateBorrowFixture(&book.Book{ID: 1, Title: "热门新书", TotalCopies: 5})

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successCount int
		noCopyCount  int
	)

	concurrency := 20
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()

			_, err := uc.Execute(ctx, CreateBorrowRequest{UserID: userID, BookID: 1})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, book.ErrNoCopiesAvailable):
				noCopyCount++
			default:
				t.Errorf("预期外的错误: %v", err)
			}
		}(uint(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 5, successCount, "成功借阅数应等于副本数")
	assert.Equal(t, 15, noCopyCount, "其余请求应全部失败")
	assert.Equal(t, 0, bookRepo.copies(1), "副本数应恰好归零")
	assert.Equal(t, 5, borrowRepo.count(), "借阅记录数应等于成功数")
}
