package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/membership"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/clock"
	"github.com/xiebiao/library/pkg/dates"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// fakeUserService 可注入失败的用户服务
type fakeUserService struct {
	registerErr error
	nextID      uint
}

func (s *fakeUserService) Register(_ context.Context, email, _, firstName, lastName string) (*user.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.nextID++
	return &user.User{
		ID:        s.nextID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      user.RoleUser,
	}, nil
}

func (s *fakeUserService) Login(_ context.Context, _, _ string) (*user.User, error) {
	return nil, apperrors.ErrUserNotFound
}

func (s *fakeUserService) ValidatePassword(_, _ string) error {
	return nil
}

// fakeMembershipRepo 只记录Create调用的会员仓储
type fakeMembershipRepo struct {
	created []*membership.Membership
}

func (r *fakeMembershipRepo) Create(_ context.Context, m *membership.Membership) error {
	m.ID = uint(len(r.created) + 1)
	copied := *m
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeMembershipRepo) FindByUserID(_ context.Context, _ uint) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) FindDetailByUserID(_ context.Context, _ uint) (*membership.Detail, error) {
	return nil, membership.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) Update(_ context.Context, _ *membership.Membership) error {
	return nil
}

func (r *fakeMembershipRepo) CreatePayment(_ context.Context, _ *membership.Payment) error {
	return nil
}

func (r *fakeMembershipRepo) ListPaymentsByUser(_ context.Context, _ uint) ([]*membership.Payment, error) {
	return nil, nil
}

func (r *fakeMembershipRepo) ListPayments(_ context.Context, _ int) ([]*membership.PaymentDetail, error) {
	return nil, nil
}

func (r *fakeMembershipRepo) RefreshExpiredStatus(_ context.Context, _ dates.Date) (int64, error) {
	return 0, nil
}

// TestRegister 测试注册即入会
func TestRegister(t *testing.T) {
	ctx := context.Background()
	today := dates.New(2024, time.March, 15)

	t.Run("注册同时创建一年期会员", func(t *testing.T) {
		membershipRepo := &fakeMembershipRepo{}
		uc := NewRegisterUseCase(&fakeUserService{}, membershipRepo, &fakeTxManager{}, clock.NewFixedDate(today))

		resp, err := uc.Execute(ctx, RegisterRequest{
			Email:     "alice@example.com",
			Password:  "Passw0rd",
			FirstName: "Alice",
			LastName:  "Reader",
		})
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.Equal(t, "user", resp.User.Role)
		assert.Equal(t, "2025-03-15", resp.MembershipEndDate, "会籍从注册当天起算一年")

		require.Len(t, membershipRepo.created, 1)
		m := membershipRepo.created[0]
		assert.Equal(t, resp.User.ID, m.UserID)
		assert.Equal(t, "2024-03-15", m.StartDate.String())
		assert.Equal(t, membership.StatusActive, m.Status)
	})

	t.Run("用户创建失败不留会员记录", func(t *testing.T) {
		membershipRepo := &fakeMembershipRepo{}
		svc := &fakeUserService{registerErr: apperrors.ErrEmailDuplicate}
		uc := NewRegisterUseCase(svc, membershipRepo, &fakeTxManager{}, clock.NewFixedDate(today))

		_, err := uc.Execute(ctx, RegisterRequest{
			Email:    "alice@example.com",
			Password: "Passw0rd",
		})

		assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
		assert.Empty(t, membershipRepo.created)
	})
}
