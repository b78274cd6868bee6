package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post types recognized at capture time
const (
	PostTypeOriginal = "original"
	PostTypeRetweet  = "retweet"
	PostTypeQuote    = "quote"
	PostTypeReply    = "reply"
)

// ValidPostType reports whether t is a recognized post type
func ValidPostType(t string) bool {
	switch t {
	case PostTypeOriginal, PostTypeRetweet, PostTypeQuote, PostTypeReply:
		return true
	}
	return false
}

// Post represents a liked post captured from the originating platform
type Post struct {
	ID                string         `gorm:"type:uuid;primaryKey;column:id"`
	ExternalID        string         `gorm:"type:varchar(64);not null;uniqueIndex;column:external_id"`
	AuthorUsername    string         `gorm:"type:varchar(64);not null;index;column:author_username"`
	AuthorDisplayName string         `gorm:"type:varchar(255);column:author_display_name"`
	AuthorAvatarURL   sql.NullString `gorm:"type:varchar(2048);column:author_avatar_url"`
	ContentText       string         `gorm:"type:text;not null;column:content_text"`
	ContentHTML       sql.NullString `gorm:"type:text;column:content_html"`
	LanguageCode      sql.NullString `gorm:"type:varchar(8);column:language_code"`
	PostURL           string         `gorm:"type:varchar(2048);not null;column:post_url"`
	PostedAt          time.Time      `gorm:"not null;column:posted_at"`
	LikedAt           time.Time      `gorm:"not null;index;column:liked_at"`
	CapturedAt        time.Time      `gorm:"not null;column:captured_at"`
	PostType          string         `gorm:"type:varchar(16);not null;column:post_type"`
	ReplyCount        int64          `gorm:"not null;default:0;column:reply_count"`
	RetweetCount      int64          `gorm:"not null;default:0;column:retweet_count"`
	LikeCount         int64          `gorm:"not null;default:0;column:like_count"`
	ViewCount         sql.NullInt64  `gorm:"column:view_count"`
	IsThreadPost      bool           `gorm:"not null;default:false;column:is_thread_post"`
	ThreadPosition    sql.NullInt64  `gorm:"column:thread_position"`
	EnrichedAt        sql.NullTime   `gorm:"index;column:enriched_at"`
	CreatedAt         time.Time      `gorm:"not null;column:created_at"`
	UpdatedAt         time.Time      `gorm:"not null;column:updated_at"`

	// Relationships
	Screenshot *Screenshot `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "liked_posts"
}

// BeforeCreate assigns the id and capture timestamp if unset
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CapturedAt.IsZero() {
		p.CapturedAt = time.Now().UTC()
	}
	return nil
}
