package models

import "time"

// FieldType tags the kind of form field a stored value belongs to.
type FieldType string

const (
	FieldTypeUploadcare FieldType = "uploadcare"
	FieldTypeRepeater   FieldType = "repeater"
	FieldTypeBuilder    FieldType = "builder"
)

// FileBearingFieldTypes lists the field types whose values can embed file
// references at arbitrary nesting depth.
func FileBearingFieldTypes() []FieldType {
	return []FieldType{FieldTypeUploadcare, FieldTypeRepeater, FieldTypeBuilder}
}

// EmbedsFiles reports whether values of this field type participate in
// media normalization.
func (t FieldType) EmbedsFiles() bool {
	switch t {
	case FieldTypeUploadcare, FieldTypeRepeater, FieldTypeBuilder:
		return true
	}
	return false
}

// Field describes one form field definition in the content schema.
type Field struct {
	ULID      string    `gorm:"column:ulid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null"`
	FieldType FieldType `gorm:"column:field_type;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Field) TableName() string { return "fields" }
