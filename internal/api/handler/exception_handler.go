package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// ExceptionHandler 考勤异常模块 HTTP 处理器
type ExceptionHandler struct {
	exceptionSvc service.ExceptionService
}

// NewExceptionHandler 创建 ExceptionHandler
func NewExceptionHandler(exceptionSvc service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptionSvc: exceptionSvc}
}

// ListExceptions 分页查询考勤异常
// GET /api/v1/exceptions
func (h *ExceptionHandler) ListExceptions(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.ExceptionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.exceptionSvc.List(c.Request.Context(), companyID, &req)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetException 获取考勤异常详情
// GET /api/v1/exceptions/:id
func (h *ExceptionHandler) GetException(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	exception, err := h.exceptionSvc.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, exception)
}

// ResolveException 处理考勤异常
// POST /api/v1/exceptions/:id/resolve
func (h *ExceptionHandler) ResolveException(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	exception, err := h.exceptionSvc.Resolve(c.Request.Context(), companyID, c.Param("id"), callerID)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, exception)
}

// handleExceptionError 统一处理考勤异常模块业务错误
func (h *ExceptionHandler) handleExceptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 24001, "考勤异常不存在")
	case errors.Is(err, service.ErrExceptionAlreadyResolved):
		response.Conflict(c, 24002, "考勤异常已处理")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 10001, "日期区间无效")
	default:
		response.InternalError(c)
	}
}
