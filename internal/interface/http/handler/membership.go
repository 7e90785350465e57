package handler

import (
	"github.com/gin-gonic/gin"

	appmembership "github.com/xiebiao/library/internal/application/membership"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// MembershipHandler 会员HTTP处理器
type MembershipHandler struct {
	membershipUseCase *appmembership.MembershipUseCase
}

// NewMembershipHandler 创建会员处理器
func NewMembershipHandler(membershipUseCase *appmembership.MembershipUseCase) *MembershipHandler {
	return &MembershipHandler{membershipUseCase: membershipUseCase}
}

// GetMy 我的会员信息
// @Summary      我的会员信息
// @Description  会员有效期、状态和剩余天数
// @Tags         会员
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "会员不存在"
// @Router       /api/v1/membership [get]
func (h *MembershipHandler) GetMy(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	result, err := h.membershipUseCase.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Extend 续费一年
// @Summary      会员续费
// @Description  会员期从原到期日延长一年;已过期则从今天重新起算
// @Tags         会员
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "续费成功"
// @Failure      404 {object} response.Response "会员不存在"
// @Router       /api/v1/membership/extend [post]
func (h *MembershipHandler) Extend(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	result, err := h.membershipUseCase.Extend(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyPayments 我的会员缴费记录
// @Summary      我的会员缴费记录
// @Tags         会员
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/membership/payments [get]
func (h *MembershipHandler) ListMyPayments(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	payments, err := h.membershipUseCase.ListPayments(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, payments)
}
