package dto

// CreateBookRequest 创建图书请求
type CreateBookRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	Author        string `json:"author" binding:"max=255"`
	ISBN          string `json:"isbn" binding:"max=32"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
	CoverURL      string `json:"cover_url" binding:"max=512"`
	TotalCopies   int    `json:"total_copies" binding:"min=0"`
}

// UpdateBookRequest 更新图书请求
// 说明:TotalCopies用指针区分"未传"与"传0",
// 传0表示馆藏全部借出/清零,不传则保持不变
type UpdateBookRequest struct {
	Title         string `json:"title" binding:"max=255"`
	Author        string `json:"author" binding:"max=255"`
	ISBN          string `json:"isbn" binding:"max=32"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
	CoverURL      string `json:"cover_url" binding:"max=512"`
	TotalCopies   *int   `json:"total_copies"`
}

// ListBooksQuery 图书列表查询参数
type ListBooksQuery struct {
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
	Keyword        string `form:"keyword"`
	SortBy         string `form:"sort_by"` // title_asc | year_desc | created_at_desc
	IncludeDeleted bool   `form:"include_deleted"`
}
