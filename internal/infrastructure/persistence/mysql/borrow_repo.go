package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// defaultListLimit 列表查询默认条数上限
const defaultListLimit = 100

// borrowRepository 借阅仓储实现(MySQL)
type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository 创建借阅仓储
func NewBorrowRepository(db *gorm.DB) borrow.Repository {
	return &borrowRepository{db: db}
}

// borrowDetailRow JOIN查询的扫描目标
// 教学要点:JOIN结果不属于任何单一GORM模型,用专门的扫描结构接住
type borrowDetailRow struct {
	BorrowRecordModel
	FirstName string
	LastName  string
	Email     string
	BookTitle string
}

// detailQuery 借阅记录与用户、图书的JOIN查询
// 已下架图书(total_copies=-1)仍参与JOIN,历史记录不能丢书名
func (r *borrowRepository) detailQuery(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).
		Table("borrow_records AS br").
		Select("br.*, u.first_name, u.last_name, u.email, b.title AS book_title").
		Joins("JOIN users u ON u.id = br.user_id").
		Joins("JOIN books b ON b.id = br.book_id")
}

// Create 创建借阅记录
func (r *borrowRepository) Create(ctx context.Context, record *borrow.Record) error {
	model := &BorrowRecordModel{
		UserID:     record.UserID,
		BookID:     record.BookID,
		BorrowDate: record.BorrowDate,
		DueDate:    record.DueDate,
		ReturnDate: record.ReturnDate,
		Status:     string(record.Status),
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to create borrow record")
	}

	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	record.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找借阅记录
func (r *borrowRepository) FindByID(ctx context.Context, id uint) (*borrow.Record, error) {
	var model BorrowRecordModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query borrow record")
	}

	return toBorrowEntity(&model), nil
}

// FindDetailByID 根据ID查找借阅记录详情(含用户、图书信息)
func (r *borrowRepository) FindDetailByID(ctx context.Context, id uint) (*borrow.Detail, error) {
	var row borrowDetailRow
	err := r.detailQuery(ctx).Where("br.id = ?", id).Take(&row).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query borrow record")
	}

	return toBorrowDetail(&row), nil
}

// LockByID 悲观锁查询借阅记录(归还事务用)
// SELECT FOR UPDATE防止并发重复归还:第二个请求在锁上等待,
// 拿到锁后看到的是已归还状态,走AlreadyReturned分支
func (r *borrowRepository) LockByID(ctx context.Context, id uint) (*borrow.Record, error) {
	var model BorrowRecordModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to lock borrow record")
	}

	return toBorrowEntity(&model), nil
}

// Update 更新借阅记录
func (r *borrowRepository) Update(ctx context.Context, record *borrow.Record) error {
	model := &BorrowRecordModel{
		ID:         record.ID,
		UserID:     record.UserID,
		BookID:     record.BookID,
		BorrowDate: record.BorrowDate,
		DueDate:    record.DueDate,
		ReturnDate: record.ReturnDate,
		Status:     string(record.Status),
		CreatedAt:  record.CreatedAt,
	}

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to update borrow record")
	}

	record.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除借阅记录(管理员清理误操作数据,不回滚库存)
func (r *borrowRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&BorrowRecordModel{}, id)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "failed to delete borrow record")
	}

	if result.RowsAffected == 0 {
		return borrow.ErrRecordNotFound
	}

	return nil
}

// List 查询最近的借阅记录详情
func (r *borrowRepository) List(ctx context.Context, limit int) ([]*borrow.Detail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []borrowDetailRow
	err := r.detailQuery(ctx).
		Order("br.borrow_date DESC, br.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list borrow records")
	}

	return toBorrowDetails(rows), nil
}

// ListByUser 查询某用户的借阅记录详情
func (r *borrowRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*borrow.Detail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []borrowDetailRow
	err := r.detailQuery(ctx).
		Where("br.user_id = ?", userID).
		Order("br.borrow_date DESC, br.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list borrow records")
	}

	return toBorrowDetails(rows), nil
}

// ListActive 查询所有在借记录(return_date IS NULL),按应还日期升序
func (r *borrowRepository) ListActive(ctx context.Context, limit int) ([]*borrow.Detail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []borrowDetailRow
	err := r.detailQuery(ctx).
		Where("br.return_date IS NULL").
		Order("br.due_date ASC, br.id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active loans")
	}

	return toBorrowDetails(rows), nil
}

// ListOverdue 查询截至today逾期未还的记录
func (r *borrowRepository) ListOverdue(ctx context.Context, today dates.Date) ([]*borrow.Detail, error) {
	var rows []borrowDetailRow
	err := r.detailQuery(ctx).
		Where("br.return_date IS NULL AND br.due_date < ?", today).
		Order("br.due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list overdue loans")
	}

	return toBorrowDetails(rows), nil
}

// RefreshOverdueStatus 把逾期未还记录的冗余status刷成overdue
// UPDATE是幂等的:已经是overdue的行不再命中WHERE条件
func (r *borrowRepository) RefreshOverdueStatus(ctx context.Context, today dates.Date) (int64, error) {
	result := getDB(ctx, r.db).Model(&BorrowRecordModel{}).
		Where("return_date IS NULL AND due_date < ? AND status <> ?", today, string(borrow.StatusOverdue)).
		Update("status", string(borrow.StatusOverdue))

	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "failed to refresh overdue status")
	}

	return result.RowsAffected, nil
}

// toBorrowEntity GORM模型 → 领域实体
func toBorrowEntity(model *BorrowRecordModel) *borrow.Record {
	return &borrow.Record{
		ID:         model.ID,
		UserID:     model.UserID,
		BookID:     model.BookID,
		BorrowDate: model.BorrowDate,
		DueDate:    model.DueDate,
		ReturnDate: model.ReturnDate,
		Status:     borrow.Status(model.Status),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toBorrowDetail(row *borrowDetailRow) *borrow.Detail {
	return &borrow.Detail{
		Record:    *toBorrowEntity(&row.BorrowRecordModel),
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		BookTitle: row.BookTitle,
	}
}

func toBorrowDetails(rows []borrowDetailRow) []*borrow.Detail {
	details := make([]*borrow.Detail, len(rows))
	for i := range rows {
		details[i] = toBorrowDetail(&rows[i])
	}
	return details
}
