package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CaptureSession groups the captures performed during one browser session.
// Bookkeeping only; not involved in thread resolution.
type CaptureSession struct {
	ID                  string         `gorm:"type:uuid;primaryKey;column:id"`
	BrowserSessionID    string         `gorm:"type:varchar(128);not null;index;column:browser_session_id"`
	CaptureStartedAt    time.Time      `gorm:"not null;index;column:capture_started_at"`
	CaptureCompletedAt  sql.NullTime   `gorm:"column:capture_completed_at"`
	PostsCaptured       int            `gorm:"not null;default:0;column:posts_captured"`
	ScreenshotsCaptured int            `gorm:"not null;default:0;column:screenshots_captured"`
	ErrorsEncountered   datatypes.JSON `gorm:"column:errors_encountered"`
	PageURL             string         `gorm:"type:varchar(2048);column:page_url"`
	ExtensionVersion    string         `gorm:"type:varchar(32);column:extension_version"`
	CreatedAt           time.Time      `gorm:"not null;column:created_at"`
	UpdatedAt           time.Time      `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for CaptureSession
func (CaptureSession) TableName() string {
	return "capture_sessions"
}

// BeforeCreate assigns the id if unset
func (s *CaptureSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CaptureStartedAt.IsZero() {
		s.CaptureStartedAt = time.Now().UTC()
	}
	return nil
}
