package models

import "time"

// MediaRelationship binds one Media row to one owning record through a
// generic (model_type, model_id) pair. Position holds the zero-based list
// order within the owner's rewritten value; Meta carries per-usage overrides
// such as the exact cdnUrl and crop modifiers, which can differ between
// usages of the same underlying Media.
type MediaRelationship struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	MediaULID string         `gorm:"column:media_ulid;not null;index"`
	ModelType string         `gorm:"column:model_type;not null;index:idx_media_rel_owner"`
	ModelID   string         `gorm:"column:model_id;not null;index:idx_media_rel_owner"`
	Position  int            `gorm:"column:position;not null;default:0"`
	Meta      map[string]any `gorm:"column:meta;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (MediaRelationship) TableName() string { return "media_relationships" }
