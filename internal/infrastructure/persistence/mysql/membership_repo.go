package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// membershipRepository 会员仓储实现(MySQL)
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository 创建会员仓储
func NewMembershipRepository(db *gorm.DB) membership.Repository {
	return &membershipRepository{db: db}
}

// Create 创建会员记录
func (r *membershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	model := &MembershipModel{
		UserID:    m.UserID,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Status:    string(m.Status),
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to create membership")
	}

	m.ID = model.ID
	m.CreatedAt = model.CreatedAt
	m.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByUserID 根据用户ID查找会员记录
func (r *membershipRepository) FindByUserID(ctx context.Context, userID uint) (*membership.Membership, error) {
	var model MembershipModel
	err := getDB(ctx, r.db).Where("user_id = ?", userID).Take(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query membership")
	}

	return toMembershipEntity(&model), nil
}

// FindDetailByUserID 根据用户ID查找会员详情
func (r *membershipRepository) FindDetailByUserID(ctx context.Context, userID uint) (*membership.Detail, error) {
	var row struct {
		MembershipModel
		FirstName string
		LastName  string
		Email     string
	}

	err := getDB(ctx, r.db).
		Table("memberships AS m").
		Select("m.*, u.first_name, u.last_name, u.email").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.user_id = ?", userID).
		Take(&row).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(err, "failed to query membership")
	}

	return &membership.Detail{
		Membership: *toMembershipEntity(&row.MembershipModel),
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
	}, nil
}

// Update 更新会员记录
func (r *membershipRepository) Update(ctx context.Context, m *membership.Membership) error {
	model := &MembershipModel{
		ID:        m.ID,
		UserID:    m.UserID,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to update membership")
	}

	m.UpdatedAt = model.UpdatedAt
	return nil
}

// CreatePayment 创建缴费记录
func (r *membershipRepository) CreatePayment(ctx context.Context, p *membership.Payment) error {
	model := &MembershipPaymentModel{
		UserID:      p.UserID,
		Amount:      p.Amount,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		PaymentDate: p.PaymentDate,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "failed to create membership payment")
	}

	p.ID = model.ID
	return nil
}

// ListPaymentsByUser 查询某用户的缴费记录
func (r *membershipRepository) ListPaymentsByUser(ctx context.Context, userID uint) ([]*membership.Payment, error) {
	var models []MembershipPaymentModel
	err := getDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("period_start DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list membership payments")
	}

	payments := make([]*membership.Payment, len(models))
	for i := range models {
		payments[i] = &membership.Payment{
			ID:          models[i].ID,
			UserID:      models[i].UserID,
			Amount:      models[i].Amount,
			PeriodStart: models[i].PeriodStart,
			PeriodEnd:   models[i].PeriodEnd,
			PaymentDate: models[i].PaymentDate,
		}
	}

	return payments, nil
}

// ListPayments 查询全部缴费记录(含用户姓名)
func (r *membershipRepository) ListPayments(ctx context.Context, limit int) ([]*membership.PaymentDetail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []struct {
		MembershipPaymentModel
		FirstName string
		LastName  string
	}

	err := getDB(ctx, r.db).
		Table("membership_payments AS mp").
		Select("mp.*, u.first_name, u.last_name").
		Joins("JOIN users u ON u.id = mp.user_id").
		Order("mp.payment_date DESC, mp.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list membership payments")
	}

	details := make([]*membership.PaymentDetail, len(rows))
	for i := range rows {
		details[i] = &membership.PaymentDetail{
			Payment: membership.Payment{
				ID:          rows[i].ID,
				UserID:      rows[i].UserID,
				Amount:      rows[i].Amount,
				PeriodStart: rows[i].PeriodStart,
				PeriodEnd:   rows[i].PeriodEnd,
				PaymentDate: rows[i].PaymentDate,
			},
			FirstName: rows[i].FirstName,
			LastName:  rows[i].LastName,
		}
	}

	return details, nil
}

// RefreshExpiredStatus 把截至today已过期会员的冗余status刷成expired
func (r *membershipRepository) RefreshExpiredStatus(ctx context.Context, today dates.Date) (int64, error) {
	result := getDB(ctx, r.db).Model(&MembershipModel{}).
		Where("end_date < ? AND status <> ?", today, string(membership.StatusExpired)).
		Update("status", string(membership.StatusExpired))

	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "failed to refresh expired memberships")
	}

	return result.RowsAffected, nil
}

// toMembershipEntity GORM模型 → 领域实体
func toMembershipEntity(model *MembershipModel) *membership.Membership {
	return &membership.Membership{
		ID:        model.ID,
		UserID:    model.UserID,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		Status:    membership.Status(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
