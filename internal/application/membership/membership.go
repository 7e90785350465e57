package membership

import (
	"context"

	"github.com/xiebiao/library/internal/application/event"
	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/pkg/clock"
)

// MembershipUseCase 会员用例(查询/续费)
type MembershipUseCase struct {
	membershipRepo membership.Repository
	txManager      shared.TxManager
	clock          clock.Clock
	notifier       event.Notifier
	annualFee      int64
}

// NewMembershipUseCase 创建会员用例
func NewMembershipUseCase(
	membershipRepo membership.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
	notifier event.Notifier,
	annualFee int64,
) *MembershipUseCase {
	if annualFee <= 0 {
		annualFee = membership.AnnualFee
	}
	return &MembershipUseCase{
		membershipRepo: membershipRepo,
		txManager:      txManager,
		clock:          clk,
		notifier:       notifier,
		annualFee:      annualFee,
	}
}

// MembershipDTO 会员详情DTO
type MembershipDTO struct {
	MembershipID uint   `json:"membership_id"`
	UserID       uint   `json:"user_id"`
	MemberName   string `json:"member_name"`
	Email        string `json:"email"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
	DaysLeft     int    `json:"days_left"`
}

// PaymentDTO 缴费记录DTO
type PaymentDTO struct {
	PaymentID   uint   `json:"payment_id"`
	UserID      uint   `json:"user_id"`
	Amount      int64  `json:"amount"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PaymentDate string `json:"payment_date"`
}

// ExtendResponse 续费结果DTO
type ExtendResponse struct {
	PaymentID  uint   `json:"payment_id"`
	NewEndDate string `json:"new_end_date"`
	Amount     int64  `json:"amount"`
}

// Get 查询某用户的会员详情
// 状态与剩余天数按注入时钟现场计算,冗余status列仅供SQL过滤
func (uc *MembershipUseCase) Get(ctx context.Context, userID uint) (*MembershipDTO, error) {
	detail, err := uc.membershipRepo.FindDetailByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := uc.clock.Today()
	return &MembershipDTO{
		MembershipID: detail.ID,
		UserID:       detail.UserID,
		MemberName:   joinName(detail.FirstName, detail.LastName),
		Email:        detail.Email,
		StartDate:    detail.StartDate.String(),
		EndDate:      detail.EndDate.String(),
		Status:       string(detail.CurrentStatus(today)),
		DaysLeft:     detail.DaysLeft(today),
	}, nil
}

// Extend 续费一年
// 事务保证:更新到期日与写入缴费记录要么都成功,要么都不发生
func (uc *MembershipUseCase) Extend(ctx context.Context, userID uint) (*ExtendResponse, error) {
	today := uc.clock.Today()

	var payment *membership.Payment
	var membershipID uint
	var newEndDate string
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		m, err := uc.membershipRepo.FindByUserID(txCtx, userID)
		if err != nil {
			return err
		}

		periodStart, periodEnd := m.Extend(today)
		if err := uc.membershipRepo.Update(txCtx, m); err != nil {
			return err
		}

		payment = membership.NewPayment(userID, uc.annualFee, periodStart, periodEnd)
		if err := uc.membershipRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		membershipID = m.ID
		newEndDate = m.EndDate.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事件发布失败不影响续费结果
	_ = uc.notifier.Publish(ctx, event.RoutingMembershipExtended, event.MembershipEvent{
		MembershipID: membershipID,
		UserID:       userID,
		NewEndDate:   newEndDate,
		Amount:       payment.Amount,
		OccurredAt:   uc.clock.Now(),
	})

	return &ExtendResponse{
		PaymentID:  payment.ID,
		NewEndDate: newEndDate,
		Amount:     payment.Amount,
	}, nil
}

// ListPayments 查询某用户的缴费记录
func (uc *MembershipUseCase) ListPayments(ctx context.Context, userID uint) ([]PaymentDTO, error) {
	payments, err := uc.membershipRepo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = PaymentDTO{
			PaymentID:   p.ID,
			UserID:      p.UserID,
			Amount:      p.Amount,
			PeriodStart: p.PeriodStart.String(),
			PeriodEnd:   p.PeriodEnd.String(),
			PaymentDate: p.PaymentDate.Format("2006-01-02 15:04:05"),
		}
	}

	return dtos, nil
}

func joinName(firstName, lastName string) string {
	switch {
	case firstName == "":
		return lastName
	case lastName == "":
		return firstName
	default:
		return firstName + " " + lastName
	}
}
