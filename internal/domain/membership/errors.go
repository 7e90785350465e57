package membership

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 会员领域错误定义
var (
	// ErrMembershipNotFound 会员记录不存在
	ErrMembershipNotFound = apperrors.New(apperrors.ErrCodeMembershipNotFound, "Membership not found")
)
