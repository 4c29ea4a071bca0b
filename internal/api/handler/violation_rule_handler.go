package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// ViolationRuleHandler 违规规则模块 HTTP 处理器
type ViolationRuleHandler struct {
	ruleSvc service.ViolationRuleService
}

// NewViolationRuleHandler 创建 ViolationRuleHandler
func NewViolationRuleHandler(ruleSvc service.ViolationRuleService) *ViolationRuleHandler {
	return &ViolationRuleHandler{ruleSvc: ruleSvc}
}

// ListRules 获取公司违规规则列表
// GET /api/v1/violation-rules
func (h *ViolationRuleHandler) ListRules(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	rules, err := h.ruleSvc.List(c.Request.Context(), companyID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// GetRule 获取违规规则详情
// GET /api/v1/violation-rules/:id
func (h *ViolationRuleHandler) GetRule(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// CreateRule 创建违规规则
// POST /api/v1/violation-rules
func (h *ViolationRuleHandler) CreateRule(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateViolationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rule, err := h.ruleSvc.Create(c.Request.Context(), companyID, &req, callerID)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.Created(c, rule)
}

// UpdateRule 更新违规规则
// PUT /api/v1/violation-rules/:id
func (h *ViolationRuleHandler) UpdateRule(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateViolationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rule, err := h.ruleSvc.Update(c.Request.Context(), companyID, c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// DeleteRule 删除违规规则
// DELETE /api/v1/violation-rules/:id
func (h *ViolationRuleHandler) DeleteRule(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	if err := h.ruleSvc.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleRuleError 统一处理违规规则模块业务错误
func (h *ViolationRuleHandler) handleRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrViolationRuleNotFound):
		response.NotFound(c, 21001, "违规规则不存在")
	case errors.Is(err, service.ErrViolationRuleCodeExists):
		response.Conflict(c, 21002, "该公司已存在相同编码的违规规则")
	case errors.Is(err, service.ErrViolationRuleInvalidPenalty):
		response.BadRequest(c, 21003, "扣分比例必须在 0-100 之间")
	case errors.Is(err, service.ErrViolationRuleInUse):
		response.Conflict(c, 21004, "违规规则已被引用，无法删除")
	case errors.Is(err, service.ErrViolationRuleInvalidCode):
		response.BadRequest(c, 21005, "违规规则编码不能为空")
	default:
		response.InternalError(c)
	}
}
