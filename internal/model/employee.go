package model

import "gorm.io/gorm"

// 员工状态
const (
	EmployeeStatusActive     = "active"
	EmployeeStatusTerminated = "terminated"
)

// Employee 员工表，对应 employees
type Employee struct {
	EmployeeID string `gorm:"type:uuid;primaryKey"                        json:"employee_id"`
	CompanyID  string `gorm:"type:uuid;not null;index"                    json:"company_id"`
	FullName   string `gorm:"type:varchar(200);not null"                  json:"full_name"`
	Position   string `gorm:"type:varchar(100)"                           json:"position,omitempty"`
	TelegramID *int64 `gorm:"uniqueIndex"                                 json:"telegram_id,omitempty"` // 未绑定聊天账号时为空
	Status     string `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.EmployeeID)
	return nil
}

// IsTerminated 是否已被解雇
func (e *Employee) IsTerminated() bool { return e.Status == EmployeeStatusTerminated }
