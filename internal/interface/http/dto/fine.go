package dto

// CreateFineRequest 管理员手工开罚单
type CreateFineRequest struct {
	UserID          uint   `json:"user_id" binding:"required"`
	BookID          uint   `json:"book_id" binding:"required"`
	Amount          int64  `json:"amount"`            // 分,<=0时用默认金额
	FineCreatedDate string `json:"fine_created_date"` // YYYY-MM-DD,可选,缺省为今天
}

// UpdateFineRequest 管理员修正罚单(零值字段保持不变)
type UpdateFineRequest struct {
	UserID     uint   `json:"user_id"`     // >0时改挂账用户
	BookID     uint   `json:"book_id"`     // >0时改关联图书
	Amount     int64  `json:"amount"`      // >0时修正金额(分)
	PaidStatus string `json:"paid_status"` // paid / not paid,空串保持不变
}

// ListPaymentsQuery 缴费流水查询参数
type ListPaymentsQuery struct {
	Limit int `form:"limit"`
}
