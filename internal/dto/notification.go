package dto

// ── 员工通知模块 DTO ──

// NotificationListRequest 通知历史查询参数
type NotificationListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// GetLimit 获取条数（含默认值）
func (r *NotificationListRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

// NotificationResponse 通知记录响应
type NotificationResponse struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	Type        string  `json:"type"`
	Content     string  `json:"content"`
	Channel     string  `json:"channel"`
	DeliveredAt *string `json:"delivered_at,omitempty"`
	Error       string  `json:"error,omitempty"`
	RelatedType *string `json:"related_type,omitempty"`
	RelatedID   *string `json:"related_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
