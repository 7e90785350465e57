package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// fineRepository 罚款仓储实现(MySQL)
type fineRepository struct {
	db *gorm.DB
}

// NewFineRepository 创建罚款仓储
func NewFineRepository(db *gorm.DB) fine.Repository {
	return &fineRepository{db: db}
}

type fineDetailRow struct {
	FineModel
	FirstName string
	LastName  string
	Email     string
	BookTitle string
}

func (r *fineRepository) detailQuery(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).
		Table("fines AS f").
		Select("f.*, u.first_name, u.last_name, u.email, b.title AS book_title").
		Joins("JOIN users u ON u.id = f.user_id").
		Joins("JOIN books b ON b.id = f.book_id")
}

// Create 创建罚款
func (r *fineRepository) Create(ctx context.Context, f *fine.Fine) error {
	model := &FineModel{
		UserID:          f.UserID,
		BookID:          f.BookID,
		Amount:          f.Amount,
		FineCreatedDate: f.FineCreatedDate,
		PaidStatus:      string(f.PaidStatus),
		FinePaidDate:    f.FinePaidDate,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to create fine")
	}

	f.ID = model.ID
	f.CreatedAt = model.CreatedAt
	f.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找罚款
func (r *fineRepository) FindByID(ctx context.Context, id uint) (*fine.Fine, error) {
	var model FineModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fine.ErrFineNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query fine")
	}

	return toFineEntity(&model), nil
}

// FindDetailByID 根据ID查找罚款详情
func (r *fineRepository) FindDetailByID(ctx context.Context, id uint) (*fine.Detail, error) {
	var row fineDetailRow
	err := r.detailQuery(ctx).Where("f.id = ?", id).Take(&row).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fine.ErrFineNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query fine")
	}

	return toFineDetail(&row), nil
}

// Update 更新罚款
func (r *fineRepository) Update(ctx context.Context, f *fine.Fine) error {
	model := &FineModel{
		ID:              f.ID,
		UserID:          f.UserID,
		BookID:          f.BookID,
		Amount:          f.Amount,
		FineCreatedDate: f.FineCreatedDate,
		PaidStatus:      string(f.PaidStatus),
		FinePaidDate:    f.FinePaidDate,
		CreatedAt:       f.CreatedAt,
	}

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to update fine")
	}

	f.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除罚款(管理员撤销误开罚单)
func (r *fineRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&FineModel{}, id)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "failed to delete fine")
	}

	if result.RowsAffected == 0 {
		return fine.ErrFineNotFound
	}

	return nil
}

// List 查询罚款详情列表
func (r *fineRepository) List(ctx context.Context, limit int) ([]*fine.Detail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []fineDetailRow
	err := r.detailQuery(ctx).
		Order("f.fine_created_date DESC, f.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fines")
	}

	return toFineDetails(rows), nil
}

// ListByUser 查询某用户的罚款详情
func (r *fineRepository) ListByUser(ctx context.Context, userID uint) ([]*fine.Detail, error) {
	var rows []fineDetailRow
	err := r.detailQuery(ctx).
		Where("f.user_id = ?", userID).
		Order("f.fine_created_date DESC, f.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fines")
	}

	return toFineDetails(rows), nil
}

// ListUnpaid 查询所有未缴纳罚款详情
func (r *fineRepository) ListUnpaid(ctx context.Context, limit int) ([]*fine.Detail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []fineDetailRow
	err := r.detailQuery(ctx).
		Where("f.paid_status <> ?", string(fine.StatusPaid)).
		Order("f.fine_created_date DESC, f.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unpaid fines")
	}

	return toFineDetails(rows), nil
}

// CountUnpaid 统计(userID, bookID)组合的未缴罚款数量
// 归还事务中调用:查询走事务DB,在借阅行锁的保护下做出放行/阻止决定
func (r *fineRepository) CountUnpaid(ctx context.Context, userID, bookID uint) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&FineModel{}).
		Where("user_id = ? AND book_id = ? AND paid_status <> ?", userID, bookID, string(fine.StatusPaid)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count unpaid fines")
	}

	return count, nil
}

// ListOverdueLoansWithoutFine 扫描逾期未还且尚无罚款的借阅
// 教学要点:NOT EXISTS子查询保证"同一人同一本书最多一条罚款",
// 重复执行定时任务时已有罚款的记录不再命中,天然幂等
func (r *fineRepository) ListOverdueLoansWithoutFine(ctx context.Context, today dates.Date) ([]fine.OverdueLoan, error) {
	var loans []fine.OverdueLoan
	err := getDB(ctx, r.db).
		Table("borrow_records AS br").
		Select("br.id AS borrow_id, br.user_id, br.book_id, br.due_date").
		Where("br.return_date IS NULL AND br.due_date < ?", today).
		Where("NOT EXISTS (SELECT 1 FROM fines f WHERE f.user_id = br.user_id AND f.book_id = br.book_id)").
		Order("br.due_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan overdue loans")
	}

	return loans, nil
}

// toFineEntity GORM模型 → 领域实体
func toFineEntity(model *FineModel) *fine.Fine {
	return &fine.Fine{
		ID:              model.ID,
		UserID:          model.UserID,
		BookID:          model.BookID,
		Amount:          model.Amount,
		FineCreatedDate: model.FineCreatedDate,
		PaidStatus:      fine.PaidStatus(model.PaidStatus),
		FinePaidDate:    model.FinePaidDate,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toFineDetail(row *fineDetailRow) *fine.Detail {
	return &fine.Detail{
		Fine:      *toFineEntity(&row.FineModel),
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		BookTitle: row.BookTitle,
	}
}

func toFineDetails(rows []fineDetailRow) []*fine.Detail {
	details := make([]*fine.Detail, len(rows))
	for i := range rows {
		details[i] = toFineDetail(&rows[i])
	}
	return details
}
