package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// RatingHandler 评分模块 HTTP 处理器
type RatingHandler struct {
	ratingSvc service.RatingService
}

// NewRatingHandler 创建 RatingHandler
func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// ListRatings 公司某周期的全部评分
// GET /api/v1/ratings?period_start=&period_end=
func (h *RatingHandler) ListRatings(c *gin.Context) {
	companyID, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	ratings, err := h.ratingSvc.ListCompanyRatings(c.Request.Context(), companyID, period)
	if err != nil {
		h.handleRatingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": ratings})
}

// GetEmployeeRating 员工某周期评分
// GET /api/v1/employees/:id/rating
func (h *RatingHandler) GetEmployeeRating(c *gin.Context) {
	companyID, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	rating, err := h.ratingSvc.GetEmployeeRating(c.Request.Context(), companyID, c.Param("id"), period)
	if err != nil {
		h.handleRatingError(c, err)
		return
	}

	response.OK(c, rating)
}

// RecalculateEmployee 重算员工评分
// POST /api/v1/employees/:id/rating/recalculate
func (h *RatingHandler) RecalculateEmployee(c *gin.Context) {
	companyID, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	rating, err := h.ratingSvc.Recalculate(c.Request.Context(), companyID, c.Param("id"), period)
	if err != nil {
		h.handleRatingError(c, err)
		return
	}

	response.OK(c, rating)
}

// RecalculateCompany 重算公司全部员工评分
// POST /api/v1/ratings/recalculate
func (h *RatingHandler) RecalculateCompany(c *gin.Context) {
	companyID, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	result, err := h.ratingSvc.RecalculateCompany(c.Request.Context(), companyID, period)
	if err != nil {
		h.handleRatingError(c, err)
		return
	}

	response.OK(c, result)
}

// bindPeriod 解析公司与评分周期（query 参数，缺省为当前自然月）
func (h *RatingHandler) bindPeriod(c *gin.Context) (string, service.Period, bool) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return "", service.Period{}, false
	}

	var req dto.RatingPeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return "", service.Period{}, false
	}

	period, err := h.ratingSvc.ResolvePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		h.handleRatingError(c, err)
		return "", service.Period{}, false
	}
	return companyID, period, true
}

// handleRatingError 统一处理评分模块业务错误
func (h *RatingHandler) handleRatingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRatingNotFound):
		response.NotFound(c, 23001, "该周期暂无评分")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 23002, "员工不存在")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 23003, "评分周期无效")
	default:
		response.InternalError(c)
	}
}
