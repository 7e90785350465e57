package user

import (
	"context"

	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/shared"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/clock"
)

// RegisterUseCase 注册用例
// 设计说明:注册即入会——用户与一年期会员记录在同一事务中创建,
// 不存在"有账号没会籍"的中间状态
type RegisterUseCase struct {
	userService    user.Service
	membershipRepo membership.Repository
	txManager      shared.TxManager
	clock          clock.Clock
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(
	userService user.Service,
	membershipRepo membership.Repository,
	txManager shared.TxManager,
	clk clock.Clock,
) *RegisterUseCase {
	return &RegisterUseCase{
		userService:    userService,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		clock:          clk,
	}
}

// RegisterRequest 注册请求DTO
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterResponse 注册响应DTO
type RegisterResponse struct {
	User              UserInfo `json:"user"`
	MembershipEndDate string   `json:"membership_end_date"`
}

// UserInfo 用户信息DTO
type UserInfo struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var u *user.User
	var m *membership.Membership

	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		u, err = uc.userService.Register(txCtx, req.Email, req.Password, req.FirstName, req.LastName)
		if err != nil {
			return err
		}

		m = membership.NewMembership(u.ID, uc.clock.Today())
		return uc.membershipRepo.Create(txCtx, m)
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{
		User: UserInfo{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      string(u.Role),
		},
		MembershipEndDate: m.EndDate.String(),
	}, nil
}
