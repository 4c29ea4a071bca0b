package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// ViolationHandler 违规记录模块 HTTP 处理器
type ViolationHandler struct {
	violationSvc service.ViolationService
}

// NewViolationHandler 创建 ViolationHandler
func NewViolationHandler(violationSvc service.ViolationService) *ViolationHandler {
	return &ViolationHandler{violationSvc: violationSvc}
}

// ListViolations 分页查询违规记录
// GET /api/v1/violations
func (h *ViolationHandler) ListViolations(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.ViolationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.violationSvc.List(c.Request.Context(), companyID, &req)
	if err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetViolation 获取违规详情
// GET /api/v1/violations/:id
func (h *ViolationHandler) GetViolation(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	violation, err := h.violationSvc.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.OK(c, violation)
}

// CreateViolation 手动录入违规
// POST /api/v1/violations
func (h *ViolationHandler) CreateViolation(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	violation, err := h.violationSvc.Create(c.Request.Context(), companyID, &req, callerID)
	if err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.Created(c, violation)
}

// UpdateViolation 修改违规
// PUT /api/v1/violations/:id
func (h *ViolationHandler) UpdateViolation(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	violation, err := h.violationSvc.Update(c.Request.Context(), companyID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.OK(c, violation)
}

// DeleteViolation 删除违规
// DELETE /api/v1/violations/:id
func (h *ViolationHandler) DeleteViolation(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	if err := h.violationSvc.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleViolationError 统一处理违规记录模块业务错误
func (h *ViolationHandler) handleViolationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrViolationNotFound):
		response.NotFound(c, 22001, "违规记录不存在")
	case errors.Is(err, service.ErrViolationRuleNotFound):
		response.NotFound(c, 22002, "违规规则不存在")
	case errors.Is(err, service.ErrViolationRuleInactive):
		response.BadRequest(c, 22003, "违规规则已停用")
	case errors.Is(err, service.ErrViolationInvalidPenalty):
		response.BadRequest(c, 22004, "扣分必须在 0-100 之间")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 22005, "员工不存在")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 10001, "日期区间无效")
	default:
		response.InternalError(c)
	}
}
