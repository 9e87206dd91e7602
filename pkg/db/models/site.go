package models

import "time"

// Site is the tenant scope for multi-site deployments.
type Site struct {
	ULID      string    `gorm:"column:ulid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Site) TableName() string { return "sites" }
