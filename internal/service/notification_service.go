package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// 通知渠道
const (
	NotificationChannelTelegram = "telegram"
	NotificationChannelNone     = "none"
)

// MessageSender 向员工聊天账号发送文本
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// NotificationService 员工通知
// 先投递再落库；员工未绑定聊天账号或未配置发送器时仅记录
type NotificationService interface {
	NotifyEmployee(ctx context.Context, employee *model.Employee, kind, text string, relatedType, relatedID *string) error
	// ListForEmployee 员工最近的通知记录，按时间倒序
	ListForEmployee(ctx context.Context, companyID, employeeID string, limit int) ([]dto.NotificationResponse, error)
}

type notificationService struct {
	repo   *repository.Repository
	sender MessageSender
	now    func() time.Time
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例，sender 可为 nil
func NewNotificationService(repo *repository.Repository, sender MessageSender, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, sender: sender, now: time.Now, logger: logger}
}

func (s *notificationService) NotifyEmployee(ctx context.Context, employee *model.Employee, kind, text string, relatedType, relatedID *string) error {
	notification := &model.Notification{
		EmployeeID:  employee.EmployeeID,
		Type:        kind,
		Content:     text,
		Channel:     NotificationChannelNone,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}

	switch {
	case employee.TelegramID == nil:
		s.logger.Info("员工未绑定聊天账号，通知仅记录",
			zap.String("employee_id", employee.EmployeeID), zap.String("type", kind))
	case s.sender == nil:
		s.logger.Info("未配置通知发送器，通知仅记录",
			zap.String("employee_id", employee.EmployeeID), zap.String("type", kind))
	default:
		notification.Channel = NotificationChannelTelegram
		if err := s.sender.Send(ctx, *employee.TelegramID, text); err != nil {
			s.logger.Warn("发送员工通知失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
			notification.Error = truncate(err.Error(), 500)
		} else {
			deliveredAt := s.now()
			notification.DeliveredAt = &deliveredAt
		}
	}

	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.logger.Error("保存通知记录失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) ListForEmployee(ctx context.Context, companyID, employeeID string, limit int) ([]dto.NotificationResponse, error) {
	if _, err := loadEmployee(ctx, s.repo, s.logger, companyID, employeeID); err != nil {
		return nil, err
	}

	notifications, err := s.repo.Notification.ListByEmployee(ctx, employeeID, limit)
	if err != nil {
		s.logger.Error("查询通知记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		list = append(list, dto.NotificationResponse{
			ID:          n.NotificationID,
			EmployeeID:  n.EmployeeID,
			Type:        n.Type,
			Content:     n.Content,
			Channel:     n.Channel,
			DeliveredAt: dto.FormatTimePtr(n.DeliveredAt),
			Error:       n.Error,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   dto.FormatTime(n.CreatedAt),
		})
	}
	return list, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
