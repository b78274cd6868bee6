package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/likekeeper/likekeeper/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository. It accepts either a root
// connection or an open transaction handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetByExternalID retrieves a post by its platform identifier
func (r *PostRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// Update updates a post
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes a post by ID
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error
}

// Count returns the total number of stored posts
func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}

// CountUnenriched returns the number of posts the enrichment pass has not visited
func (r *PostRepository) CountUnenriched(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("enriched_at IS NULL").Count(&count).Error
	return count, err
}

// CountByType returns post counts grouped by post type
func (r *PostRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	type row struct {
		PostType string
		N        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("post_type, count(*) as n").
		Group("post_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rr := range rows {
		counts[rr.PostType] = rr.N
	}
	return counts, nil
}

// CountUniqueAuthors returns the number of distinct authors
func (r *PostRepository) CountUniqueAuthors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct("author_username").Count(&count).Error
	return count, err
}

// LastCaptureTime returns the most recent capture timestamp, or zero time
// when no posts are stored
func (r *PostRepository) LastCaptureTime(ctx context.Context) (time.Time, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Order("captured_at DESC").First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return post.CapturedAt, nil
}

// ListUnenriched returns up to limit posts awaiting enrichment, oldest first
func (r *PostRepository) ListUnenriched(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("enriched_at IS NULL").
		Order("captured_at ASC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListOrdered returns all posts ordered by liked_at, for export
func (r *PostRepository) ListOrdered(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Screenshot").
		Order("liked_at ASC").
		Find(&posts).Error
	return posts, err
}

// ScreenshotRepository provides screenshot-related database operations
type ScreenshotRepository struct {
	*Repository
}

// NewScreenshotRepository creates a new screenshot repository
func NewScreenshotRepository(repo *Repository) *ScreenshotRepository {
	return &ScreenshotRepository{Repository: repo}
}

// Create creates a new screenshot row
func (r *ScreenshotRepository) Create(ctx context.Context, shot *models.Screenshot) error {
	return r.db.WithContext(ctx).Create(shot).Error
}

// GetByPostID retrieves the screenshot owned by a post
func (r *ScreenshotRepository) GetByPostID(ctx context.Context, postID string) (*models.Screenshot, error) {
	var shot models.Screenshot
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&shot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shot, nil
}

// DeleteByPostID removes the screenshot row owned by a post
func (r *ScreenshotRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Screenshot{}).Error
}

// Count returns the total number of screenshots
func (r *ScreenshotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Screenshot{}).Count(&count).Error
	return count, err
}

// ListAll returns all screenshot rows, for cleanup passes
func (r *ScreenshotRepository) ListAll(ctx context.Context) ([]*models.Screenshot, error) {
	var shots []*models.Screenshot
	err := r.db.WithContext(ctx).Find(&shots).Error
	return shots, err
}

// RelationshipRepository provides thread-edge database operations
type RelationshipRepository struct {
	*Repository
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(repo *Repository) *RelationshipRepository {
	return &RelationshipRepository{Repository: repo}
}

// Create creates a new thread relationship edge
func (r *RelationshipRepository) Create(ctx context.Context, edge *models.ThreadRelationship) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// Exists reports whether an edge for the given (child, parent) pair is
// already stored. A null parent matches edges whose parent is null.
func (r *RelationshipRepository) Exists(ctx context.Context, childID string, parentID sql.NullString) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.ThreadRelationship{}).
		Where("child_post_id = ?", childID)
	if parentID.Valid {
		q = q.Where("parent_post_id = ?", parentID.String)
	} else {
		q = q.Where("parent_post_id IS NULL")
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsForPost reports whether any edge references the post on any endpoint
func (r *RelationshipRepository) ExistsForPost(ctx context.Context, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ThreadRelationship{}).
		Where("child_post_id = ? OR parent_post_id = ? OR root_post_id = ?", postID, postID, postID).
		Count(&count).Error
	return count > 0, err
}

// FirstByChild returns the first edge anchored at the given child post
func (r *RelationshipRepository) FirstByChild(ctx context.Context, childID string) (*models.ThreadRelationship, error) {
	var edge models.ThreadRelationship
	err := r.db.WithContext(ctx).
		Where("child_post_id = ?", childID).
		Order("discovered_at ASC").
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// ListByChild returns all edges anchored at the given child post
func (r *RelationshipRepository) ListByChild(ctx context.Context, childID string) ([]*models.ThreadRelationship, error) {
	var edges []*models.ThreadRelationship
	err := r.db.WithContext(ctx).
		Where("child_post_id = ?", childID).
		Order("discovered_at ASC").
		Find(&edges).Error
	return edges, err
}

// DeleteByPostID removes all edges referencing the post on any endpoint
func (r *RelationshipRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).
		Where("child_post_id = ? OR parent_post_id = ? OR root_post_id = ?", postID, postID, postID).
		Delete(&models.ThreadRelationship{}).Error
}

// Count returns the total number of thread relationship edges
func (r *RelationshipRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ThreadRelationship{}).Count(&count).Error
	return count, err
}

// SessionRepository provides capture-session database operations
type SessionRepository struct {
	*Repository
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(repo *Repository) *SessionRepository {
	return &SessionRepository{Repository: repo}
}

// GetByBrowserSessionID retrieves the most recent session for a browser session id
func (r *SessionRepository) GetByBrowserSessionID(ctx context.Context, browserSessionID string) (*models.CaptureSession, error) {
	var session models.CaptureSession
	err := r.db.WithContext(ctx).
		Where("browser_session_id = ?", browserSessionID).
		Order("capture_started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Create creates a new capture session
func (r *SessionRepository) Create(ctx context.Context, session *models.CaptureSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// Update updates a capture session
func (r *SessionRepository) Update(ctx context.Context, session *models.CaptureSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Count returns the total number of capture sessions
func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CaptureSession{}).Count(&count).Error
	return count, err
}

// CountOlderThan returns the number of sessions started before cutoff
func (r *SessionRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CaptureSession{}).
		Where("capture_started_at < ?", cutoff).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes sessions started before cutoff, returning the count
func (r *SessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("capture_started_at < ?", cutoff).
		Delete(&models.CaptureSession{})
	return res.RowsAffected, res.Error
}
