package models

import "time"

// Setting stores site-level configuration as a JSON document. The values
// column historically suffered the same double-encoding drift as field
// values, so the encoding repair walks this table too.
type Setting struct {
	ULID      string    `gorm:"column:ulid;primaryKey"`
	SiteULID  *string   `gorm:"column:site_ulid;index"`
	Values    string    `gorm:"column:values;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Setting) TableName() string { return "settings" }
