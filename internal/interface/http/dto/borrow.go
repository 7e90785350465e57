package dto

// CreateBorrowRequest 创建借阅请求
// 日期均为YYYY-MM-DD,可选:borrow_date缺省为今天,due_date缺省为borrow_date+借期
type CreateBorrowRequest struct {
	UserID     uint   `json:"user_id"` // 管理员可代他人办理,普通用户只能填自己的ID或留空
	BookID     uint   `json:"book_id" binding:"required"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

// ReturnBookRequest 还书请求
type ReturnBookRequest struct {
	ReturnDate string `json:"return_date"` // 可选,缺省为今天
}

// UpdateBorrowRequest 管理员修正借阅日期
type UpdateBorrowRequest struct {
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}
