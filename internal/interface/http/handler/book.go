package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	manageUseCase *appbook.ManageBookUseCase
	listUseCase   *appbook.ListBooksUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	manageUseCase *appbook.ManageBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
) *BookHandler {
	return &BookHandler{
		manageUseCase: manageUseCase,
		listUseCase:   listUseCase,
	}
}

// List 图书列表
// @Summary      图书列表
// @Description  分页查询图书,支持关键词搜索和排序
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码,默认1"
// @Param        page_size query int false "每页数量,默认20,最大100"
// @Param        keyword query string false "标题/作者关键词"
// @Param        sort_by query string false "排序: title_asc | year_desc | created_at_desc"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	// 分页参数在这里归一化,信封里的page/page_size回显实际生效值
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 20
	}

	// 已下架图书只对管理员可见
	includeDeleted := query.IncludeDeleted && middleware.IsAdmin(c)

	books, total, err := h.listUseCase.List(c.Request.Context(), appbook.ListBooksRequest{
		Page:           query.Page,
		PageSize:       query.PageSize,
		Keyword:        query.Keyword,
		SortBy:         query.SortBy,
		IncludeDeleted: includeDeleted,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, books, total, query.Page, query.PageSize)
}

// Get 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	book, err := h.listUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, book)
}

// Create 创建图书（管理员）
// @Summary      创建图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      201 {object} response.Response "创建成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "ISBN重复"
// @Router       /api/v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	bookID, err := h.manageUseCase.Create(c.Request.Context(), appbook.CreateBookRequest{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		TotalCopies:   req.TotalCopies,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"book_id": bookID})
}

// Update 更新图书（管理员）
// @Summary      更新图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "图书信息"
// @Success      200 {object} response.Response "更新成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	if err := h.manageUseCase.Update(c.Request.Context(), appbook.UpdateBookRequest{
		BookID:        id,
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		TotalCopies:   req.TotalCopies,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"book_id": id})
}

// Delete 下架图书（管理员）
// @Summary      下架图书
// @Description  软删除:馆藏数置为-1,图书从列表中隐藏,借阅记录保留
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "下架成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	if err := h.manageUseCase.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"book_id": id})
}

// parseIDParam 解析路径中的数字ID
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
