package borrow

import (
	"context"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
)

// ListBorrowsUseCase 借阅记录查询用例
// 读路径不开事务,status以return_date/due_date现场推导,冗余列仅供SQL过滤
type ListBorrowsUseCase struct {
	borrowRepo borrow.Repository
	clock      clock.Clock
}

// NewListBorrowsUseCase 创建借阅查询用例
func NewListBorrowsUseCase(borrowRepo borrow.Repository, clk clock.Clock) *ListBorrowsUseCase {
	return &ListBorrowsUseCase{borrowRepo: borrowRepo, clock: clk}
}

// BorrowDetailDTO 借阅详情DTO
type BorrowDetailDTO struct {
	BorrowID   uint   `json:"borrow_id"`
	UserID     uint   `json:"user_id"`
	BookID     uint   `json:"book_id"`
	MemberName string `json:"member_name"`
	Email      string `json:"email"`
	BookTitle  string `json:"book_title"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Status     string `json:"status"`
}

// ActiveLoanDTO 在借记录DTO(含剩余天数与紧急程度)
type ActiveLoanDTO struct {
	BorrowDetailDTO
	DaysLeft int    `json:"days_left"`
	Urgency  string `json:"urgency"`
}

// List 查询最近借阅记录
func (uc *ListBorrowsUseCase) List(ctx context.Context, limit int) ([]BorrowDetailDTO, error) {
	details, err := uc.borrowRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return uc.toDTOs(details), nil
}

// ListByUser 查询某用户的借阅记录
func (uc *ListBorrowsUseCase) ListByUser(ctx context.Context, userID uint, limit int) ([]BorrowDetailDTO, error) {
	details, err := uc.borrowRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return uc.toDTOs(details), nil
}

// ListActive 查询在借记录(按应还日期升序,带紧急程度分档)
func (uc *ListBorrowsUseCase) ListActive(ctx context.Context, limit int) ([]ActiveLoanDTO, error) {
	details, err := uc.borrowRepo.ListActive(ctx, limit)
	if err != nil {
		return nil, err
	}

	today := uc.clock.Today()
	loans := make([]ActiveLoanDTO, len(details))
	for i, d := range details {
		daysLeft := today.DaysUntil(d.DueDate)
		loans[i] = ActiveLoanDTO{
			BorrowDetailDTO: toDetailDTO(d, today),
			DaysLeft:        daysLeft,
			Urgency:         string(borrow.ClassifyUrgency(daysLeft)),
		}
	}

	return loans, nil
}

// ListOverdue 查询逾期未还记录
func (uc *ListBorrowsUseCase) ListOverdue(ctx context.Context) ([]BorrowDetailDTO, error) {
	details, err := uc.borrowRepo.ListOverdue(ctx, uc.clock.Today())
	if err != nil {
		return nil, err
	}
	return uc.toDTOs(details), nil
}

func (uc *ListBorrowsUseCase) toDTOs(details []*borrow.Detail) []BorrowDetailDTO {
	today := uc.clock.Today()
	dtos := make([]BorrowDetailDTO, len(details))
	for i, d := range details {
		dtos[i] = toDetailDTO(d, today)
	}
	return dtos
}

// toDetailDTO 领域详情 → DTO
func toDetailDTO(d *borrow.Detail, today dates.Date) BorrowDetailDTO {
	dto := BorrowDetailDTO{
		BorrowID:   d.ID,
		UserID:     d.UserID,
		BookID:     d.BookID,
		MemberName: memberName(d.FirstName, d.LastName),
		Email:      d.Email,
		BookTitle:  d.BookTitle,
		BorrowDate: d.BorrowDate.String(),
		DueDate:    d.DueDate.String(),
		Status:     string(d.CurrentStatus(today)),
	}
	if d.ReturnDate != nil {
		dto.ReturnDate = d.ReturnDate.String()
	}
	return dto
}

func memberName(firstName, lastName string) string {
	switch {
	case firstName == "":
		return lastName
	case lastName == "":
		return firstName
	default:
		return firstName + " " + lastName
	}
}
