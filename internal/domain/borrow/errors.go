package borrow

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrRecordNotFound 借阅记录不存在
	ErrRecordNotFound = apperrors.New(apperrors.ErrCodeBorrowNotFound, "Borrow record not found")

	// ErrAlreadyReturned 重复归还
	ErrAlreadyReturned = apperrors.New(apperrors.ErrCodeAlreadyReturned, "Borrowing already returned")

	// ErrUnpaidFines 该书存在未缴罚款,禁止归还
	ErrUnpaidFines = apperrors.New(apperrors.ErrCodeUnpaidFines, "Cannot return: unpaid fines exist for this book")

	// ErrInvalidBorrowDate 无效的借出日期
	ErrInvalidBorrowDate = apperrors.New(apperrors.ErrCodeInvalidParams, "Invalid borrow date")
)
