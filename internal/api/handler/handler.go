package handler

import "github.com/muhamed1222/timeout-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Shift         *ShiftHandler
	Bot           *BotHandler
	ViolationRule *ViolationRuleHandler
	Violation     *ViolationHandler
	Rating        *RatingHandler
	Exception     *ExceptionHandler
	Monitor       *MonitorHandler
	Notification  *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Shift:         NewShiftHandler(svc.Shift),
		Bot:           NewBotHandler(svc.Shift),
		ViolationRule: NewViolationRuleHandler(svc.ViolationRule),
		Violation:     NewViolationHandler(svc.Violation),
		Rating:        NewRatingHandler(svc.Rating),
		Exception:     NewExceptionHandler(svc.Exception),
		Monitor:       NewMonitorHandler(svc.Monitor),
		Notification:  NewNotificationHandler(svc.Notification),
	}
}
