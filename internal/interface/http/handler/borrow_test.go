package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// fakeTxManager 测试事务:直接执行函数体
type fakeTxManager struct{}

func (fakeTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// noopNotifier 丢弃事件
type noopNotifier struct{}

func (noopNotifier) Publish(_ context.Context, _ string, _ interface{}) error { return nil }

// fakeBorrowRepo 内存借阅仓储(图书仓储复用book_test.go里的实现)
type fakeBorrowRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*borrow.Record
}

func newFakeBorrowRepo() *fakeBorrowRepo {
	return &fakeBorrowRepo{records: make(map[uint]*borrow.Record)}
}

func (r *fakeBorrowRepo) Create(_ context.Context, rec *borrow.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

func (r *fakeBorrowRepo) FindByID(_ context.Context, id uint) (*borrow.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, borrow.ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeBorrowRepo) FindDetailByID(ctx context.Context, id uint) (*borrow.Detail, error) {
	rec, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &borrow.Detail{Record: *rec}, nil
}

func (r *fakeBorrowRepo) LockByID(ctx context.Context, id uint) (*borrow.Record, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBorrowRepo) Update(_ context.Context, rec *borrow.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return borrow.ErrRecordNotFound
	}
	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

func (r *fakeBorrowRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *fakeBorrowRepo) List(_ context.Context, _ int) ([]*borrow.Detail, error) {
	return nil, nil
}

func (r *fakeBorrowRepo) ListByUser(_ context.Context, _ uint, _ int) ([]*borrow.Detail, error) {
	return nil, nil
}

func (r *fakeBorrowRepo) ListActive(_ context.Context, _ int) ([]*borrow.Detail, error) {
	return nil, nil
}

func (r *fakeBorrowRepo) ListOverdue(_ context.Context, _ dates.Date) ([]*borrow.Detail, error) {
	return nil, nil
}

func (r *fakeBorrowRepo) RefreshOverdueStatus(_ context.Context, _ dates.Date) (int64, error) {
	return 0, nil
}

// fakeFineRepo 借还路径只会用到CountUnpaid
type fakeFineRepo struct{}

func (fakeFineRepo) Create(_ context.Context, _ *fine.Fine) error { return nil }

func (fakeFineRepo) FindByID(_ context.Context, _ uint) (*fine.Fine, error) {
	return nil, fine.ErrFineNotFound
}

func (fakeFineRepo) FindDetailByID(_ context.Context, _ uint) (*fine.Detail, error) {
	return nil, fine.ErrFineNotFound
}

func (fakeFineRepo) Update(_ context.Context, _ *fine.Fine) error { return nil }

func (fakeFineRepo) Delete(_ context.Context, _ uint) error { return nil }

func (fakeFineRepo) List(_ context.Context, _ int) ([]*fine.Detail, error) { return nil, nil }

func (fakeFineRepo) ListByUser(_ context.Context, _ uint) ([]*fine.Detail, error) {
	return nil, nil
}

func (fakeFineRepo) ListUnpaid(_ context.Context, _ int) ([]*fine.Detail, error) {
	return nil, nil
}

func (fakeFineRepo) CountUnpaid(_ context.Context, _, _ uint) (int64, error) { return 0, nil }

func (fakeFineRepo) ListOverdueLoansWithoutFine(_ context.Context, _ dates.Date) ([]fine.OverdueLoan, error) {
	return nil, nil
}

// authAs 模拟已通过认证中间件的请求上下文
func authAs(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", "reader@example.com")
		c.Set("role", role)
	}
}

func newBorrowRouter(userID uint, role string, books ...*book.Book) *gin.Engine {
	gin.SetMode(gin.TestMode)

	bookRepo := newFakeBookRepo(books...)
	borrowRepo := newFakeBorrowRepo()
	clk := clock.NewFixedDate(dates.New(2024, time.January, 1))

	h := NewBorrowHandler(
		appborrow.NewCreateBorrowUseCase(borrowRepo, bookRepo, fakeTxManager{}, clk, noopNotifier{}, 14),
		appborrow.NewReturnBookUseCase(borrowRepo, bookRepo, fakeFineRepo{}, fakeTxManager{}, clk, noopNotifier{}),
		appborrow.NewListBorrowsUseCase(borrowRepo, clk),
		appborrow.NewGetBorrowUseCase(borrowRepo, clk),
		appborrow.NewManageBorrowUseCase(borrowRepo),
	)

	r := gin.New()
	r.Use(authAs(userID, role))
	r.POST("/borrowings", h.Create)
	r.PUT("/borrowings/:id/return", h.Return)
	return r
}

// TestBorrowHandlerCreate 测试借书接口的权限裁剪
func TestBorrowHandlerCreate(t *testing.T) {
	t.Run("读者为自己借书", func(t *testing.T) {
		r := newBorrowRouter(7, "member", &book.Book{Title: "Go程序设计", TotalCopies: 2})

		w, env := perform(t, r, http.MethodPost, "/borrowings", map[string]interface{}{
			"book_id": 1,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 0, env.Code)
	})

	t.Run("读者显式填自己的user_id放行", func(t *testing.T) {
		r := newBorrowRouter(7, "member", &book.Book{Title: "Go程序设计", TotalCopies: 2})

		w, env := perform(t, r, http.MethodPost, "/borrowings", map[string]interface{}{
			"user_id": 7,
			"book_id": 1,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 0, env.Code)
	})

	t.Run("读者替他人借书返回403", func(t *testing.T) {
		r := newBorrowRouter(7, "member", &book.Book{Title: "Go程序设计", TotalCopies: 2})

		w, env := perform(t, r, http.MethodPost, "/borrowings", map[string]interface{}{
			"user_id": 8,
			"book_id": 1,
		})

		assert.Equal(t, http.StatusForbidden, w.Code, "user_id与登录身份不符应被拒绝而非悄悄替换")
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)
	})

	t.Run("管理员可代他人办理", func(t *testing.T) {
		r := newBorrowRouter(1, "admin", &book.Book{Title: "Go程序设计", TotalCopies: 2})

		w, env := perform(t, r, http.MethodPost, "/borrowings", map[string]interface{}{
			"user_id": 8,
			"book_id": 1,
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var data struct {
			UserID uint `json:"user_id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, uint(8), data.UserID, "借阅应记在被代办的读者名下")
	})
}

// TestBorrowHandlerReturn 测试还书接口走PUT语义
func TestBorrowHandlerReturn(t *testing.T) {
	t.Run("归还成功", func(t *testing.T) {
		r := newBorrowRouter(7, "member", &book.Book{Title: "Go程序设计", TotalCopies: 2})

		_, created := perform(t, r, http.MethodPost, "/borrowings", map[string]interface{}{
			"book_id": 1,
		})
		require.Equal(t, 0, created.Code)

		var borrowed struct {
			BorrowID uint `json:"borrow_id"`
		}
		require.NoError(t, json.Unmarshal(created.Data, &borrowed))

		w, env := perform(t, r, http.MethodPut, "/borrowings/1/return", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, env.Code)

		var data struct {
			BorrowID uint   `json:"borrow_id"`
			Status   string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, borrowed.BorrowID, data.BorrowID)
		assert.Equal(t, "returned", data.Status)
	})
}
