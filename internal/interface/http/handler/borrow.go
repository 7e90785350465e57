package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// BorrowHandler 借阅HTTP处理器
// 设计说明：借书/还书是核心写路径,Handler只做参数解析和权限裁剪,
// 库存扣减、罚款检查等一致性逻辑全部在应用层事务内完成
type BorrowHandler struct {
	createUseCase *appborrow.CreateBorrowUseCase
	returnUseCase *appborrow.ReturnBookUseCase
	listUseCase   *appborrow.ListBorrowsUseCase
	getUseCase    *appborrow.GetBorrowUseCase
	manageUseCase *appborrow.ManageBorrowUseCase
}

// NewBorrowHandler 创建借阅处理器
func NewBorrowHandler(
	createUseCase *appborrow.CreateBorrowUseCase,
	returnUseCase *appborrow.ReturnBookUseCase,
	listUseCase *appborrow.ListBorrowsUseCase,
	getUseCase *appborrow.GetBorrowUseCase,
	manageUseCase *appborrow.ManageBorrowUseCase,
) *BorrowHandler {
	return &BorrowHandler{
		createUseCase: createUseCase,
		returnUseCase: returnUseCase,
		listUseCase:   listUseCase,
		getUseCase:    getUseCase,
		manageUseCase: manageUseCase,
	}
}

// Create 借书
// @Summary      借书
// @Description  创建借阅记录并扣减馆藏(行锁+条件更新保证不超借)
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBorrowRequest true "借阅信息"
// @Success      201 {object} response.Response "借阅成功"
// @Failure      400 {object} response.Response "无可借副本/图书已下架"
// @Failure      403 {object} response.Response "不能替他人借书"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/borrowings [post]
func (h *BorrowHandler) Create(c *gin.Context) {
	var req dto.CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	// 普通用户只能为自己借书,管理员可代他人办理
	userID := middleware.MustGetUserID(c)
	if req.UserID != 0 && req.UserID != userID {
		if !middleware.IsAdmin(c) {
			response.ErrorWithCode(c, apperrors.ErrCodeForbidden, "无权限为他人办理借阅")
			return
		}
		userID = req.UserID
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appborrow.CreateBorrowRequest{
		UserID:     userID,
		BookID:     req.BookID,
		BorrowDate: req.BorrowDate,
		DueDate:    req.DueDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Return 还书
// @Summary      还书
// @Description  标记归还并恢复馆藏;逾期且有未缴罚款时拒绝还书
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Param        request body dto.ReturnBookRequest false "归还信息"
// @Success      200 {object} response.Response "归还成功"
// @Failure      400 {object} response.Response "已归还/存在未缴罚款"
// @Failure      404 {object} response.Response "借阅记录不存在"
// @Router       /api/v1/borrowings/{id}/return [put]
func (h *BorrowHandler) Return(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	// 还书请求体可以为空
	var req dto.ReturnBookRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
			return
		}
	}

	result, err := h.returnUseCase.Execute(c.Request.Context(), appborrow.ReturnBookRequest{
		BorrowID:   id,
		ReturnDate: req.ReturnDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// List 全部借阅记录（管理员）
// @Summary      借阅记录列表
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "返回条数,默认100"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/borrowings [get]
func (h *BorrowHandler) List(c *gin.Context) {
	limit := parseLimitQuery(c)

	records, err := h.listUseCase.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, records)
}

// ListMy 我的借阅记录
// @Summary      我的借阅记录
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "返回条数,默认100"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/borrowings/my [get]
func (h *BorrowHandler) ListMy(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	limit := parseLimitQuery(c)

	records, err := h.listUseCase.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, records)
}

// ListActive 在借清单（管理员）
// @Summary      在借清单
// @Description  未归还的借阅,按应还日期升序,附剩余天数和紧急程度
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "返回条数,默认100"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/borrowings/active [get]
func (h *BorrowHandler) ListActive(c *gin.Context) {
	limit := parseLimitQuery(c)

	loans, err := h.listUseCase.ListActive(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, loans)
}

// ListOverdue 逾期清单（管理员）
// @Summary      逾期清单
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/borrowings/overdue [get]
func (h *BorrowHandler) ListOverdue(c *gin.Context) {
	records, err := h.listUseCase.ListOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, records)
}

// Get 借阅详情
// @Summary      借阅详情
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "借阅记录不存在"
// @Router       /api/v1/borrowings/{id} [get]
func (h *BorrowHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	record, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 普通用户只能查看自己的借阅记录
	if !middleware.IsAdmin(c) && record.UserID != middleware.MustGetUserID(c) {
		response.ErrorWithCode(c, apperrors.ErrCodeForbidden, "无权限查看此借阅记录")
		return
	}

	response.Success(c, record)
}

// Update 修正借阅日期（管理员）
// @Summary      修正借阅日期
// @Description  行政修正借出/应还日期,不触碰库存和罚款
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Param        request body dto.UpdateBorrowRequest true "日期信息"
// @Success      200 {object} response.Response "更新成功"
// @Failure      404 {object} response.Response "借阅记录不存在"
// @Router       /api/v1/borrowings/{id} [put]
func (h *BorrowHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	var req dto.UpdateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	if err := h.manageUseCase.Update(c.Request.Context(), appborrow.UpdateBorrowRequest{
		BorrowID:   id,
		BorrowDate: req.BorrowDate,
		DueDate:    req.DueDate,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"borrow_id": id})
}

// Delete 删除借阅记录（管理员）
// @Summary      删除借阅记录
// @Description  行政删除,不恢复馆藏,仅用于清理错误数据
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response "删除成功"
// @Failure      404 {object} response.Response "借阅记录不存在"
// @Router       /api/v1/borrowings/{id} [delete]
func (h *BorrowHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的借阅记录ID")
		return
	}

	if err := h.manageUseCase.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"borrow_id": id})
}

// parseLimitQuery 解析limit查询参数,非法或缺省时返回0(由应用层取默认值)
func parseLimitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
