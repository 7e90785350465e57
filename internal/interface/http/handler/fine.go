package handler

import (
	"github.com/gin-gonic/gin"

	appfine "github.com/xiebiao/library/internal/application/fine"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// FineHandler 罚款HTTP处理器
type FineHandler struct {
	syncUseCase   *appfine.SyncOverdueUseCase
	payUseCase    *appfine.PayFineUseCase
	listUseCase   *appfine.ListFinesUseCase
	manageUseCase *appfine.ManageFineUseCase
}

// NewFineHandler 创建罚款处理器
func NewFineHandler(
	syncUseCase *appfine.SyncOverdueUseCase,
	payUseCase *appfine.PayFineUseCase,
	listUseCase *appfine.ListFinesUseCase,
	manageUseCase *appfine.ManageFineUseCase,
) *FineHandler {
	return &FineHandler{
		syncUseCase:   syncUseCase,
		payUseCase:    payUseCase,
		listUseCase:   listUseCase,
		manageUseCase: manageUseCase,
	}
}

// SyncOverdue 逾期同步（管理员）
// @Summary      逾期同步
// @Description  刷新逾期状态并为无罚单的逾期借阅补开罚单,幂等可重复执行
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "同步完成"
// @Router       /api/v1/fines/sync-overdue [post]
func (h *FineHandler) SyncOverdue(c *gin.Context) {
	result, err := h.syncUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Pay 缴纳罚款
// @Summary      缴纳罚款
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款ID"
// @Success      200 {object} response.Response "缴费成功"
// @Failure      400 {object} response.Response "罚款已缴纳"
// @Failure      404 {object} response.Response "罚款不存在"
// @Router       /api/v1/fines/{id}/pay [put]
func (h *FineHandler) Pay(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的罚款ID")
		return
	}

	// 普通用户只能缴纳自己的罚款
	if !middleware.IsAdmin(c) {
		detail, err := h.listUseCase.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if detail.UserID != middleware.MustGetUserID(c) {
			response.ErrorWithCode(c, apperrors.ErrCodeForbidden, "无权限缴纳此罚款")
			return
		}
	}

	result, err := h.payUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Get 罚款详情
// @Summary      罚款详情
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款ID"
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "罚款不存在"
// @Router       /api/v1/fines/{id} [get]
func (h *FineHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的罚款ID")
		return
	}

	detail, err := h.listUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 普通用户只能查看自己的罚款
	if !middleware.IsAdmin(c) && detail.UserID != middleware.MustGetUserID(c) {
		response.ErrorWithCode(c, apperrors.ErrCodeForbidden, "无权限查看此罚款")
		return
	}

	response.Success(c, detail)
}

// Update 修正罚单（管理员）
// @Summary      修正罚单
// @Description  修正挂账用户、关联图书、金额或缴纳状态,零值字段保持不变
// @Tags         罚款
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款ID"
// @Param        request body dto.UpdateFineRequest true "修正内容"
// @Success      200 {object} response.Response "修正成功"
// @Failure      404 {object} response.Response "罚款不存在"
// @Router       /api/v1/fines/{id} [put]
func (h *FineHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的罚款ID")
		return
	}

	var req dto.UpdateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	if err := h.manageUseCase.Update(c.Request.Context(), appfine.UpdateFineRequest{
		FineID:     id,
		UserID:     req.UserID,
		BookID:     req.BookID,
		Amount:     req.Amount,
		PaidStatus: req.PaidStatus,
	}); err != nil {
		response.Error(c, err)
		return
	}

	// 返回修正后的详情视图
	detail, err := h.listUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, detail)
}

// List 罚款列表（管理员）
// @Summary      罚款列表
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "返回条数,默认100"
// @Param        unpaid query bool false "只看未缴"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/fines [get]
func (h *FineHandler) List(c *gin.Context) {
	limit := parseLimitQuery(c)

	var (
		fines []appfine.FineDetailDTO
		err   error
	)
	if c.Query("unpaid") == "true" {
		fines, err = h.listUseCase.ListUnpaid(c.Request.Context(), limit)
	} else {
		fines, err = h.listUseCase.List(c.Request.Context(), limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, fines)
}

// ListMy 我的罚款
// @Summary      我的罚款
// @Description  当前用户的罚款明细及未缴/已缴合计
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/fines/my [get]
func (h *FineHandler) ListMy(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	fines, err := h.listUseCase.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	totals, err := h.listUseCase.TotalsByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"fines":  fines,
		"totals": totals,
	})
}

// ListPayments 缴费流水（管理员）
// @Summary      缴费流水
// @Description  罚款缴纳与会员费合并后的流水,按时间倒序
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "返回条数,默认100"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/payments [get]
func (h *FineHandler) ListPayments(c *gin.Context) {
	limit := parseLimitQuery(c)

	payments, err := h.listUseCase.ListPayments(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, payments)
}

// Create 手工开罚单（管理员）
// @Summary      手工开罚单
// @Tags         罚款
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateFineRequest true "罚款信息"
// @Success      201 {object} response.Response "创建成功"
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/fines [post]
func (h *FineHandler) Create(c *gin.Context) {
	var req dto.CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	fineID, err := h.manageUseCase.Create(c.Request.Context(), appfine.CreateFineRequest{
		UserID:          req.UserID,
		BookID:          req.BookID,
		Amount:          req.Amount,
		FineCreatedDate: req.FineCreatedDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"fine_id": fineID})
}

// Delete 删除罚款（管理员）
// @Summary      删除罚款
// @Tags         罚款
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "罚款ID"
// @Success      200 {object} response.Response "删除成功"
// @Failure      404 {object} response.Response "罚款不存在"
// @Router       /api/v1/fines/{id} [delete]
func (h *FineHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的罚款ID")
		return
	}

	if err := h.manageUseCase.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"fine_id": id})
}
