package model

import "gorm.io/gorm"

// Company 公司表，对应 companies
type Company struct {
	CompanyID string `gorm:"type:uuid;primaryKey"        json:"company_id"`
	Name      string `gorm:"type:varchar(200);not null" json:"name"`
	BaseModel
}

// TableName 指定表名
func (Company) TableName() string { return "companies" }

func (c *Company) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CompanyID)
	return nil
}
