package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

// NotificationHandler 员工通知历史
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListEmployeeNotifications 员工最近收到的通知
// GET /api/v1/employees/:id/notifications?limit=
func (h *NotificationHandler) ListEmployeeNotifications(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.notificationSvc.ListForEmployee(c.Request.Context(), companyID, c.Param("id"), req.GetLimit())
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			response.NotFound(c, 25001, "员工不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}
