package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
// 说明:错误消息直接作为API响应返回给客户端,保持稳定的英文措辞
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "Book not found")

	// ErrNoCopiesAvailable 无可借副本
	ErrNoCopiesAvailable = apperrors.New(apperrors.ErrCodeNoCopies, "No copies available")

	// ErrBookUnavailable 图书已下架
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "Book is no longer available")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "A book with this ISBN already exists")

	// ErrInvalidCopies 无效的副本数
	ErrInvalidCopies = apperrors.New(apperrors.ErrCodeInvalidParams, "Total copies cannot be negative")

	// ErrInvalidTitle 书名不能为空
	ErrInvalidTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "Title is required")
)
