package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Company       CompanyRepository
	Employee      EmployeeRepository
	Shift         ShiftRepository
	ViolationRule ViolationRuleRepository
	Violation     ViolationRepository
	Rating        RatingRepository
	Exception     ExceptionRepository
	Notification  NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Company:       NewCompanyRepo(db),
		Employee:      NewEmployeeRepo(db),
		Shift:         NewShiftRepo(db),
		ViolationRule: NewViolationRuleRepo(db),
		Violation:     NewViolationRepo(db),
		Rating:        NewRatingRepo(db),
		Exception:     NewExceptionRepo(db),
		Notification:  NewNotificationRepo(db),
	}
}
