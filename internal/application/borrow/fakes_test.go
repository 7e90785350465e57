package borrow

import (
	"context"
	"sync"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/dates"
)

// 测试用内存仓储
// 说明:fakeTxManager用互斥锁串行化"事务",模拟行锁的互斥效果——
// 同一时刻只有一个事务函数在执行,与SELECT FOR UPDATE的排队语义一致

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// fakeBookRepo 内存图书仓储
type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uint]*book.Book
}

func newFakeBookRepo(books ...*book.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: make(map[uint]*book.Book)}
	for _, b := range books {
		copied := *b
		r.books[b.ID] = &copied
	}
	return r
}

func (r *fakeBookRepo) Create(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uint(len(r.books) + 1)
	copied := *b
	r.books[b.ID] = &copied
	return nil
}

func (r *fakeBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookRepo) Update(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.ID]; !ok {
		return book.ErrBookNotFound
	}
	copied := *b
	r.books[b.ID] = &copied
	return nil
}

func (r *fakeBookRepo) SoftDelete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	b.TotalCopies = book.CopiesSoftDeleted
	return nil
}

func (r *fakeBookRepo) List(_ context.Context, _ book.ListParams) ([]*book.Book, int64, error) {
	return nil, 0, nil
}

func (r *fakeBookRepo) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

// AdjustCopies 模拟带余量检查的原子UPDATE
func (r *fakeBookRepo) AdjustCopies(_ context.Context, id uint, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.TotalCopies+delta < 0 {
		if b.IsSoftDeleted() {
			return book.ErrBookUnavailable
		}
		return book.ErrNoCopiesAvailable
	}
	b.TotalCopies += delta
	return nil
}

func (r *fakeBookRepo) copies(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[id].TotalCopies
}

// fakeBorrowRepo 内存借阅仓储
// members/titles模拟JOIN视图的展示字段,未登记时Detail的关联字段为空
type fakeBorrowRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*borrow.Record
	members map[uint]fakeMember
	titles  map[uint]string
}

type fakeMember struct {
	firstName string
	lastName  string
	email     string
}

func newFakeBorrowRepo() *fakeBorrowRepo {
	return &fakeBorrowRepo{
		records: make(map[uint]*borrow.Record),
		members: make(map[uint]fakeMember),
		titles:  make(map[uint]string),
	}
}

func (r *fakeBorrowRepo) setMember(userID uint, firstName, lastName, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[userID] = fakeMember{firstName: firstName, lastName: lastName, email: email}
}

func (r *fakeBorrowRepo) setBookTitle(bookID uint, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[bookID] = title
}

// detailLocked 组装JOIN视图,调用方需持有r.mu
func (r *fakeBorrowRepo) detailLocked(rec borrow.Record) *borrow.Detail {
	m := r.members[rec.UserID]
	return &borrow.Detail{
		Record:    rec,
		FirstName: m.firstName,
		LastName:  m.lastName,
		Email:     m.email,
		BookTitle: r.titles[rec.BookID],
	}
}

func (r *fakeBorrowRepo) add(rec *borrow.Record) *borrow.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	copied := *rec
	r.records[rec.ID] = &copied
	return rec
}

func (r *fakeBorrowRepo) Create(_ context.Context, rec *borrow.Record) error {
	r.add(rec)
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

func (r *fakeBorrowRepo) FindDetailByID(_ context.Context, id uint) (*borrow.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, borrow.ErrRecordNotFound
	}
	return r.detailLocked(*rec), nil
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
	if _, ok := r.records[id]; !ok {
		return borrow.ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeBorrowRepo) List(_ context.Context, _ int) ([]*borrow.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details := make([]*borrow.Detail, 0, len(r.records))
	for _, rec := range r.records {
		details = append(details, r.detailLocked(*rec))
	}
	return details, nil
}

func (r *fakeBorrowRepo) ListByUser(_ context.Context, userID uint, _ int) ([]*borrow.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*borrow.Detail
	for _, rec := range r.records {
		if rec.UserID == userID {
			details = append(details, r.detailLocked(*rec))
		}
	}
	return details, nil
}

func (r *fakeBorrowRepo) ListActive(_ context.Context, _ int) ([]*borrow.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*borrow.Detail
	for _, rec := range r.records {
		if !rec.IsReturned() {
			details = append(details, r.detailLocked(*rec))
		}
	}
	return details, nil
}

func (r *fakeBorrowRepo) ListOverdue(_ context.Context, today dates.Date) ([]*borrow.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*borrow.Detail
	for _, rec := range r.records {
		if rec.IsOverdue(today) {
			details = append(details, r.detailLocked(*rec))
		}
	}
	return details, nil
}

func (r *fakeBorrowRepo) RefreshOverdueStatus(_ context.Context, today dates.Date) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refreshed int64
	for _, rec := range r.records {
		if rec.IsOverdue(today) && rec.Status != borrow.StatusOverdue {
			rec.Status = borrow.StatusOverdue
			refreshed++
		}
	}
	return refreshed, nil
}

func (r *fakeBorrowRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeFineRepo 内存罚款仓储(还书路径只用到CountUnpaid)
type fakeFineRepo struct {
	mu    sync.Mutex
	fines []*fine.Fine
}

func (r *fakeFineRepo) Create(_ context.Context, f *fine.Fine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = uint(len(r.fines) + 1)
	r.fines = append(r.fines, f)
	return nil
}

func (r *fakeFineRepo) FindByID(_ context.Context, id uint) (*fine.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fines {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fine.ErrFineNotFound
}

func (r *fakeFineRepo) FindDetailByID(_ context.Context, _ uint) (*fine.Detail, error) {
	return nil, fine.ErrFineNotFound
}

func (r *fakeFineRepo) Update(_ context.Context, _ *fine.Fine) error { return nil }

func (r *fakeFineRepo) Delete(_ context.Context, _ uint) error { return nil }

func (r *fakeFineRepo) List(_ context.Context, _ int) ([]*fine.Detail, error) { return nil, nil }

func (r *fakeFineRepo) ListByUser(_ context.Context, _ uint) ([]*fine.Detail, error) {
	return nil, nil
}

func (r *fakeFineRepo) ListUnpaid(_ context.Context, _ int) ([]*fine.Detail, error) {
	return nil, nil
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

func (r *fakeFineRepo) ListOverdueLoansWithoutFine(_ context.Context, _ dates.Date) ([]fine.OverdueLoan, error) {
	return nil, nil
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
