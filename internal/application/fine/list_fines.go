package fine

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/fine"
	"github.com/xiebiao/library/internal/domain/membership"
)

// ListFinesUseCase 罚款查询用例
type ListFinesUseCase struct {
	fineRepo       fine.Repository
	membershipRepo membership.Repository
}

// NewListFinesUseCase 创建罚款查询用例
func NewListFinesUseCase(fineRepo fine.Repository, membershipRepo membership.Repository) *ListFinesUseCase {
	return &ListFinesUseCase{fineRepo: fineRepo, membershipRepo: membershipRepo}
}

// FineDetailDTO 罚款详情DTO
type FineDetailDTO struct {
	FineID          uint   `json:"fine_id"`
	UserID          uint   `json:"user_id"`
	BookID          uint   `json:"book_id"`
	MemberName      string `json:"member_name"`
	BookTitle       string `json:"book_title"`
	Amount          int64  `json:"amount"`
	FineCreatedDate string `json:"fine_created_date"`
	PaidStatus      string `json:"paid_status"`
	FinePaidDate    string `json:"fine_paid_date,omitempty"`
}

// PaymentItemDTO 收款流水项DTO(罚款与会员费合并视图)
type PaymentItemDTO struct {
	ID         uint   `json:"id"`
	MemberName string `json:"member_name"`
	Amount     int64  `json:"amount"`
	Type       string `json:"type"` // fine | membership
	Status     string `json:"status"`
	Date       string `json:"date"`
}

// FineTotalsDTO 某用户的罚款汇总DTO
type FineTotalsDTO struct {
	TotalUnpaid int64 `json:"total_unpaid"` // 分
	TotalAll    int64 `json:"total_all"`    // 分
}

// List 查询罚款列表
func (uc *ListFinesUseCase) List(ctx context.Context, limit int) ([]FineDetailDTO, error) {
	details, err := uc.fineRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toFineDTOs(details), nil
}

// ListUnpaid 查询未缴纳罚款列表
func (uc *ListFinesUseCase) ListUnpaid(ctx context.Context, limit int) ([]FineDetailDTO, error) {
	details, err := uc.fineRepo.ListUnpaid(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toFineDTOs(details), nil
}

// ListByUser 查询某用户的罚款列表
func (uc *ListFinesUseCase) ListByUser(ctx context.Context, userID uint) ([]FineDetailDTO, error) {
	details, err := uc.fineRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toFineDTOs(details), nil
}

// Get 查询单条罚款详情
func (uc *ListFinesUseCase) Get(ctx context.Context, id uint) (*FineDetailDTO, error) {
	detail, err := uc.fineRepo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toFineDTO(detail)
	return &dto, nil
}

// TotalsByUser 某用户的罚款汇总(未缴/全部)
func (uc *ListFinesUseCase) TotalsByUser(ctx context.Context, userID uint) (*FineTotalsDTO, error) {
	details, err := uc.fineRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := &FineTotalsDTO{}
	for _, d := range details {
		totals.TotalAll += d.Amount
		if !d.IsPaid() {
			totals.TotalUnpaid += d.Amount
		}
	}

	return totals, nil
}

// ListPayments 收款流水(罚款与会员费合并,按日期倒序)
// 两个来源各取limit条,合并排序后再截断到limit
func (uc *ListFinesUseCase) ListPayments(ctx context.Context, limit int) ([]PaymentItemDTO, error) {
	fines, err := uc.fineRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	memberPayments, err := uc.membershipRepo.ListPayments(ctx, limit)
	if err != nil {
		return nil, err
	}

	type entry struct {
		at  time.Time
		dto PaymentItemDTO
	}
	entries := make([]entry, 0, len(fines)+len(memberPayments))

	for _, f := range fines {
		date := f.FineCreatedDate
		if f.FinePaidDate != nil {
			date = *f.FinePaidDate
		}
		entries = append(entries, entry{at: date.Time(), dto: PaymentItemDTO{
			ID:         f.ID,
			MemberName: joinName(f.FirstName, f.LastName),
			Amount:     f.Amount,
			Type:       "fine",
			Status:     string(f.PaidStatus),
			Date:       date.String(),
		}})
	}

	for _, p := range memberPayments {
		entries = append(entries, entry{at: p.PaymentDate, dto: PaymentItemDTO{
			ID:         p.ID,
			MemberName: joinName(p.FirstName, p.LastName),
			Amount:     p.Amount,
			Type:       "membership",
			Status:     "paid",
			Date:       p.PaymentDate.Format("2006-01-02"),
		}})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].at.After(entries[b].at)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]PaymentItemDTO, len(entries))
	for i := range entries {
		items[i] = entries[i].dto
	}

	return items, nil
}

func toFineDTO(d *fine.Detail) FineDetailDTO {
	dto := FineDetailDTO{
		FineID:          d.ID,
		UserID:          d.UserID,
		BookID:          d.BookID,
		MemberName:      joinName(d.FirstName, d.LastName),
		BookTitle:       d.BookTitle,
		Amount:          d.Amount,
		FineCreatedDate: d.FineCreatedDate.String(),
		PaidStatus:      string(d.PaidStatus),
	}
	if d.FinePaidDate != nil {
		dto.FinePaidDate = d.FinePaidDate.String()
	}
	return dto
}

func toFineDTOs(details []*fine.Detail) []FineDetailDTO {
	dtos := make([]FineDetailDTO, len(details))
	for i, d := range details {
		dtos[i] = toFineDTO(d)
	}
	return dtos
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
