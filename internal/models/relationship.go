package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationship types between posts in a thread
const (
	RelationshipReply              = "reply"
	RelationshipQuote              = "quote"
	RelationshipThreadContinuation = "thread_continuation"
)

// ThreadRelationship is a directed edge anchoring a captured post into its
// thread. The parent may be null when the edge records a reply whose parent
// was never captured; the root always references a stored post and may equal
// the child when the post is itself the thread root.
type ThreadRelationship struct {
	ID               string         `gorm:"type:uuid;primaryKey;column:id"`
	ChildPostID      string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_child_parent;column:child_post_id"`
	ParentPostID     sql.NullString `gorm:"type:uuid;index;uniqueIndex:idx_child_parent;column:parent_post_id"`
	RootPostID       string         `gorm:"type:uuid;not null;index;column:root_post_id"`
	DepthLevel       int            `gorm:"not null;default:0;column:depth_level"`
	RelationshipType string         `gorm:"type:varchar(32);not null;column:relationship_type"`
	DiscoveredAt     time.Time      `gorm:"not null;column:discovered_at"`

	Child *Post `gorm:"foreignKey:ChildPostID;references:ID;constraint:OnDelete:CASCADE"`
	Root  *Post `gorm:"foreignKey:RootPostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for ThreadRelationship
func (ThreadRelationship) TableName() string {
	return "thread_relationships"
}

// BeforeCreate assigns the id and discovery timestamp if unset
func (r *ThreadRelationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.DiscoveredAt.IsZero() {
		r.DiscoveredAt = time.Now().UTC()
	}
	return nil
}
