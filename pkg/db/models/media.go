package models

import "time"

// DiskUploadcare is the disk tag stamped on media rows whose bytes live on
// the Uploadcare CDN.
const DiskUploadcare = "uploadcare"

// Media is the de-duplicated representation of one uploaded file. For the
// uploadcare disk, Filename holds the upload's UUID and (Disk, Filename) is
// the natural key: at most one row exists per pair, enforced by a unique
// index plus insert-on-conflict-do-nothing in the repository.
type Media struct {
	ULID             string         `gorm:"column:ulid;primaryKey"`
	SiteULID         *string        `gorm:"column:site_ulid;index"`
	UploadedBy       *string        `gorm:"column:uploaded_by"`
	Disk             string         `gorm:"column:disk;not null;uniqueIndex:idx_media_disk_filename"`
	Filename         string         `gorm:"column:filename;not null;uniqueIndex:idx_media_disk_filename"`
	OriginalFilename string         `gorm:"column:original_filename"`
	MimeType         string         `gorm:"column:mime_type"`
	Extension        string         `gorm:"column:extension"`
	Size             int64          `gorm:"column:size;not null;default:0"`
	Width            *int           `gorm:"column:width"`
	Height           *int           `gorm:"column:height"`
	Alt              *string        `gorm:"column:alt"`
	Public           bool           `gorm:"column:public;not null;default:true"`
	Metadata         map[string]any `gorm:"column:metadata;serializer:json"`
	// Checksum is md5 of the upload UUID: an identity fingerprint kept for
	// compatibility with historical rows, not a content integrity hash.
	Checksum  string    `gorm:"column:checksum"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Media) TableName() string { return "media" }
