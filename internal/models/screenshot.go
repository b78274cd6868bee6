package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image formats accepted for screenshots
const (
	ImageFormatPNG  = "png"
	ImageFormatJPG  = "jpg"
	ImageFormatWebP = "webp"
)

// Capture methods
const (
	CaptureMethodFullPost      = "full_post"
	CaptureMethodVisibleArea   = "visible_area"
	CaptureMethodThreadContext = "thread_context"
)

// Screenshot represents the image artifact owned by a captured post.
// At most one screenshot exists per post.
type Screenshot struct {
	ID            string    `gorm:"type:uuid;primaryKey;column:id"`
	PostID        string    `gorm:"type:uuid;not null;uniqueIndex;column:post_id"`
	StoragePath   string    `gorm:"type:varchar(1024);not null;column:storage_path"`
	ImageFormat   string    `gorm:"type:varchar(8);not null;column:image_format"`
	SizeBytes     int64     `gorm:"not null;column:size_bytes"`
	Width         int       `gorm:"not null;column:width"`
	Height        int       `gorm:"not null;column:height"`
	CaptureMethod string    `gorm:"type:varchar(32);not null;column:capture_method"`
	QualityScore  float64   `gorm:"type:decimal(3,2);default:1.0;column:quality_score"`
	CreatedAt     time.Time `gorm:"not null;column:created_at"`
	UpdatedAt     time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Screenshot
func (Screenshot) TableName() string {
	return "post_screenshots"
}

// BeforeCreate assigns the id if unset
func (s *Screenshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
