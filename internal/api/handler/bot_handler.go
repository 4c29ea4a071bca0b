package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// BotHandler 聊天机器人网关调用的班次动作，员工由 telegram_id 定位
type BotHandler struct {
	shiftSvc service.ShiftService
}

// NewBotHandler 创建 BotHandler
func NewBotHandler(shiftSvc service.ShiftService) *BotHandler {
	return &BotHandler{shiftSvc: shiftSvc}
}

// CurrentShift 查询当前进行中的班次
// POST /api/v1/bot/shift/current
func (h *BotHandler) CurrentShift(c *gin.Context) {
	h.act(c, h.shiftSvc.BotCurrent)
}

// StartShift 开班
// POST /api/v1/bot/shift/start
func (h *BotHandler) StartShift(c *gin.Context) {
	h.act(c, h.shiftSvc.BotStartShift)
}

// EndShift 下班
// POST /api/v1/bot/shift/end
func (h *BotHandler) EndShift(c *gin.Context) {
	h.act(c, h.shiftSvc.BotEndShift)
}

// StartBreak 开始休息
// POST /api/v1/bot/break/start
func (h *BotHandler) StartBreak(c *gin.Context) {
	h.act(c, h.shiftSvc.BotStartBreak)
}

// EndBreak 结束休息
// POST /api/v1/bot/break/end
func (h *BotHandler) EndBreak(c *gin.Context) {
	h.act(c, h.shiftSvc.BotEndBreak)
}

func (h *BotHandler) act(c *gin.Context, fn func(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)) {
	var req dto.BotActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := fn(c.Request.Context(), req.TelegramID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}
