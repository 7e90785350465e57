package fine

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 罚款领域错误定义
var (
	// ErrFineNotFound 罚款不存在
	ErrFineNotFound = apperrors.New(apperrors.ErrCodeFineNotFound, "Fine not found")

	// ErrFineAlreadyPaid 罚款已缴纳
	ErrFineAlreadyPaid = apperrors.New(apperrors.ErrCodeFineAlreadyPaid, "Fine has already been paid")

	// ErrInvalidAmount 无效的金额
	ErrInvalidAmount = apperrors.New(apperrors.ErrCodeInvalidParams, "Fine amount must be positive")
)
