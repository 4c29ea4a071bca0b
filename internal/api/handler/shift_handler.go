package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	pkgerrors "github.com/muhamed1222/timeout-sub002/pkg/errors"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器（管理端）
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// CreateShift 创建计划班次
// POST /api/v1/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), companyID, &req, callerID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// GetShift 获取班次详情（含区间）
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// ListShifts 员工班次列表
// GET /api/v1/shifts?employee_id=&from=&to=
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shifts, err := h.shiftSvc.ListByEmployee(c.Request.Context(), companyID, &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// DeleteShift 删除班次
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// StartShiftForEmployee 为员工开班，无当日计划时临时开班
// POST /api/v1/shifts/start
func (h *ShiftHandler) StartShiftForEmployee(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.StartShiftForEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.StartForEmployee(c.Request.Context(), companyID, req.EmployeeID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// StartShift 开始计划班次
// POST /api/v1/shifts/:id/start
func (h *ShiftHandler) StartShift(c *gin.Context) {
	h.transition(c, h.shiftSvc.Start)
}

// EndShift 结束班次
// POST /api/v1/shifts/:id/end
func (h *ShiftHandler) EndShift(c *gin.Context) {
	h.transition(c, h.shiftSvc.End)
}

// CancelShift 取消班次
// POST /api/v1/shifts/:id/cancel
func (h *ShiftHandler) CancelShift(c *gin.Context) {
	h.transition(c, h.shiftSvc.Cancel)
}

// StartBreak 开始休息
// POST /api/v1/shifts/:id/breaks/start
func (h *ShiftHandler) StartBreak(c *gin.Context) {
	h.transition(c, h.shiftSvc.StartBreak)
}

// EndBreak 结束休息
// POST /api/v1/shifts/:id/breaks/end
func (h *ShiftHandler) EndBreak(c *gin.Context) {
	h.transition(c, h.shiftSvc.EndBreak)
}

type shiftTransition func(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)

func (h *ShiftHandler) transition(c *gin.Context, fn shiftTransition) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	shift, err := fn(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// handleShiftError 统一处理班次模块业务错误（管理端与机器人共用）
func handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 20001, "班次不存在")
	case errors.Is(err, service.ErrShiftInvalidTimeRange):
		response.BadRequest(c, 20002, "计划结束时间必须晚于计划开始时间")
	case errors.Is(err, service.ErrShiftInvalidTransition):
		response.Conflict(c, 20003, "当前班次状态不允许该操作")
	case errors.Is(err, service.ErrShiftAlreadyActive):
		response.Conflict(c, 20004, "员工已有进行中的班次")
	case errors.Is(err, service.ErrNoActiveShift):
		response.NotFound(c, 20005, "当前没有进行中的班次")
	case errors.Is(err, service.ErrBreakAlreadyOpen):
		response.Conflict(c, 20006, "已在休息中")
	case errors.Is(err, service.ErrNoOpenBreak):
		response.Conflict(c, 20007, "当前没有进行中的休息")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 20008, "员工不存在")
	case errors.Is(err, service.ErrEmployeeTerminated):
		response.Forbidden(c, 20009, "员工已被解雇")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20010, "班次已被并发修改，请重试")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 10001, "日期区间无效")
	default:
		response.InternalError(c)
	}
}
