package models

import "time"

// FieldValueModelType is the polymorphic discriminator stored on
// media_relationships rows owned by a content field value.
const FieldValueModelType = "content_field_value"

// ContentFieldValue stores one value for one (content record, field) pair.
// Value holds a JSON document of unbounded nesting depth as text; legacy
// rows may carry multiply string-encoded JSON inside it.
type ContentFieldValue struct {
	ULID        string    `gorm:"column:ulid;primaryKey"`
	ContentULID string    `gorm:"column:content_ulid;not null;index"`
	FieldULID   string    `gorm:"column:field_ulid;not null;index"`
	SiteULID    *string   `gorm:"column:site_ulid"`
	Value       string    `gorm:"column:value"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Field *Field `gorm:"foreignKey:FieldULID;references:ULID"`
}

func (ContentFieldValue) TableName() string { return "content_field_values" }
