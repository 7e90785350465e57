package fine

import (
	"context"
	"errors"
	"sync"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/pkg/dates"
)

// 测试用内存仓储

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// fakeFineRepo 内存罚款仓储
// overdueLoans模拟逾期借阅视图;ListOverdueLoansWithoutFine按(user, book)
// 排除已有罚款的记录,与SQL的NOT EXISTS语义一致
type fakeFineRepo struct {
	mu           sync.Mutex
	nextID       uint
	fines        []*fine.Fine
	overdueLoans []fine.OverdueLoan
	failCreate   map[uint]bool // 按UserID注入创建失败
}

func (r *fakeFineRepo) Create(_ context.Context, f *fine.Fine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate[f.UserID] {
		return errors.New("insert failed")
	}
	r.nextID++
	f.ID = r.nextID
	r.fines = append(r.fines, f)
	return nil
}

func (r *fakeFineRepo) FindByID(_ context.Context, id uint) (*fine.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fines {
		if f.ID == id {
			copied := *f
			return &copied, nil
		}
	}
	return nil, fine.ErrFineNotFound
}

func (r *fakeFineRepo) FindDetailByID(ctx context.Context, id uint) (*fine.Detail, error) {
	f, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &fine.Detail{Fine: *f}, nil
}

func (r *fakeFineRepo) Update(_ context.Context, f *fine.Fine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.fines {
		if stored.ID == f.ID {
			copied := *f
			r.fines[i] = &copied
			return nil
		}
	}
	return fine.ErrFineNotFound
}

func (r *fakeFineRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.fines {
		if f.ID == id {
			r.fines = append(r.fines[:i], r.fines[i+1:]...)
			return nil
		}
	}
	return fine.ErrFineNotFound
}

func (r *fakeFineRepo) List(_ context.Context, _ int) ([]*fine.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details := make([]*fine.Detail, len(r.fines))
	for i, f := range r.fines {
		copied := *f
		details[i] = &fine.Detail{Fine: copied}
	}
	return details, nil
}

func (r *fakeFineRepo) ListByUser(_ context.Context, userID uint) ([]*fine.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*fine.Detail
	for _, f := range r.fines {
		if f.UserID == userID {
			copied := *f
			details = append(details, &fine.Detail{Fine: copied})
		}
	}
	return details, nil
}

func (r *fakeFineRepo) ListUnpaid(_ context.Context, _ int) ([]*fine.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*fine.Detail
	for _, f := range r.fines {
		if !f.IsPaid() {
			copied := *f
			details = append(details, &fine.Detail{Fine: copied})
		}
	}
	return details, nil
}

func (r *fakeFineRepo) CountUnpaid(_ context.Context, userID, bookID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, f := range r.fines {
		if f.UserID == userID && f.BookID == bookID && !f.IsPaid() {
			count++
		}
	}
	return count, nil
}

func (r *fakeFineRepo) ListOverdueLoansWithoutFine(_ context.Context, today dates.Date) ([]fine.OverdueLoan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var loans []fine.OverdueLoan
	for _, loan := range r.overdueLoans {
		if !loan.DueDate.Before(today) {
			continue
		}
		exists := false
		for _, f := range r.fines {
			if f.UserID == loan.UserID && f.BookID == loan.BookID {
				exists = true
				break
			}
		}
		if !exists {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

func (r *fakeFineRepo) all() []*fine.Fine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fine.Fine(nil), r.fines...)
}

// fakeBorrowRepo 逾期同步只用到RefreshOverdueStatus
type fakeBorrowRepo struct {
	refreshCalls int
}

func (r *fakeBorrowRepo) Create(_ context.Context, _ *borrow.Record) error { return nil }

func (r *fakeBorrowRepo) FindByID(_ context.Context, _ uint) (*borrow.Record, error) {
	return nil, borrow.ErrRecordNotFound
}

func (r *fakeBorrowRepo) FindDetailByID(_ context.Context, _ uint) (*borrow.Detail, error) {
	return nil, borrow.ErrRecordNotFound
}

func (r *fakeBorrowRepo) LockByID(_ context.Context, _ uint) (*borrow.Record, error) {
	return nil, borrow.ErrRecordNotFound
}

func (r *fakeBorrowRepo) Update(_ context.Context, _ *borrow.Record) error { return nil }

func (r *fakeBorrowRepo) Delete(_ context.Context, _ uint) error { return nil }

func (r *fakeBorrowRepo) List(_ context.Context, _ int) ([]*borrow.Detail, error) { return nil, nil }

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
	r.refreshCalls++
	return 0, nil
}

// fakeMembershipRepo 缴费流水合并测试用
type fakeMembershipRepo struct {
	payments []*membership.PaymentDetail
}

func (r *fakeMembershipRepo) Create(_ context.Context, _ *membership.Membership) error { return nil }

func (r *fakeMembershipRepo) FindByUserID(_ context.Context, _ uint) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) FindDetailByUserID(_ context.Context, _ uint) (*membership.Detail, error) {
	return nil, membership.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) Update(_ context.Context, _ *membership.Membership) error { return nil }

func (r *fakeMembershipRepo) CreatePayment(_ context.Context, _ *membership.Payment) error {
	return nil
}

func (r *fakeMembershipRepo) ListPaymentsByUser(_ context.Context, _ uint) ([]*membership.Payment, error) {
	return nil, nil
}

func (r *fakeMembershipRepo) ListPayments(_ context.Context, _ int) ([]*membership.PaymentDetail, error) {
	return r.payments, nil
}

func (r *fakeMembershipRepo) RefreshExpiredStatus(_ context.Context, _ dates.Date) (int64, error) {
	return 0, nil
}

// recordingNotifier 记录发布的事件路由键
type recordingNotifier struct {
	mu   sync.Mutex
	keys []string
}

func (n *recordingNotifier) Publish(_ context.Context, routingKey string, _ interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, routingKey)
	return nil
}

func (n *recordingNotifier) published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys...)
}
