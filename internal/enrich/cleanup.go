package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/storage"
	"github.com/likekeeper/likekeeper/pkg/logging"
)

// CleanupStats summarizes one cleanup run
type CleanupStats struct {
	OrphanedScreenshots int64
	OldPosts            int64
	OldSessions         int64
}

// Cleanup removes orphaned screenshot rows and, when a retention period is
// configured, data older than the cutoff. Safe to re-run.
type Cleanup struct {
	db     *db.DB
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewCleanup creates a cleanup pass
func NewCleanup(database *db.DB, blobs storage.BlobStore) *Cleanup {
	return &Cleanup{
		db:     database,
		blobs:  blobs,
		logger: logging.WithComponent("cleanup"),
	}
}

// Run executes the cleanup. retentionDays of zero disables the age purge.
// With dryRun set, counts are reported but nothing is removed.
func (c *Cleanup) Run(ctx context.Context, retentionDays int, dryRun bool) (*CleanupStats, error) {
	stats := &CleanupStats{}

	orphaned, err := c.cleanOrphanedScreenshots(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	stats.OrphanedScreenshots = orphaned

	if retentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
		oldPosts, err := c.cleanOldPosts(ctx, cutoff, dryRun)
		if err != nil {
			return nil, err
		}
		stats.OldPosts = oldPosts

		oldSessions, err := c.cleanOldSessions(ctx, cutoff, dryRun)
		if err != nil {
			return nil, err
		}
		stats.OldSessions = oldSessions
	}

	c.logger.Info("Cleanup complete",
		zap.Int64("orphaned_screenshots", stats.OrphanedScreenshots),
		zap.Int64("old_posts", stats.OldPosts),
		zap.Int64("old_sessions", stats.OldSessions),
		zap.Bool("dry_run", dryRun))

	return stats, nil
}

// cleanOrphanedScreenshots removes screenshot rows whose owning post is
// gone, together with their blobs. The cascade constraint normally prevents
// these; this catches rows left over from interrupted deletes.
func (c *Cleanup) cleanOrphanedScreenshots(ctx context.Context, dryRun bool) (int64, error) {
	repo := db.NewRepository(c.db.DB)
	shotRepo := db.NewScreenshotRepository(repo)
	postRepo := db.NewPostRepository(repo)

	shots, err := shotRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, shot := range shots {
		post, err := postRepo.GetByID(ctx, shot.PostID)
		if err != nil {
			return removed, err
		}
		if post != nil {
			continue
		}
		removed++
		if dryRun {
			continue
		}
		if err := c.blobs.Delete(ctx, shot.StoragePath); err != nil {
			c.logger.Warn("Orphaned blob deletion failed",
				zap.String("key", shot.StoragePath),
				zap.Error(err))
		}
		if err := shotRepo.DeleteByPostID(ctx, shot.PostID); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

// cleanOldPosts removes posts captured before the cutoff along with their
// screenshots, blobs and edges
func (c *Cleanup) cleanOldPosts(ctx context.Context, cutoff time.Time, dryRun bool) (int64, error) {
	repo := db.NewRepository(c.db.DB)
	postRepo := db.NewPostRepository(repo)
	shotRepo := db.NewScreenshotRepository(repo)
	relRepo := db.NewRelationshipRepository(repo)

	// Walk posts one relation at a time so blobs are reclaimed before
	// the rows referencing them disappear.
	posts, err := postRepo.ListOrdered(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, post := range posts {
		if !post.CapturedAt.Before(cutoff) {
			continue
		}
		removed++
		if dryRun {
			continue
		}
		if post.Screenshot != nil {
			if err := c.blobs.Delete(ctx, post.Screenshot.StoragePath); err != nil {
				c.logger.Warn("Blob deletion failed",
					zap.String("key", post.Screenshot.StoragePath),
					zap.Error(err))
			}
			if err := shotRepo.DeleteByPostID(ctx, post.ID); err != nil {
				return removed, err
			}
		}
		if err := relRepo.DeleteByPostID(ctx, post.ID); err != nil {
			return removed, err
		}
		if err := postRepo.Delete(ctx, post.ID); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

func (c *Cleanup) cleanOldSessions(ctx context.Context, cutoff time.Time, dryRun bool) (int64, error) {
	sessionRepo := db.NewSessionRepository(db.NewRepository(c.db.DB))
	if dryRun {
		return sessionRepo.CountOlderThan(ctx, cutoff)
	}
	return sessionRepo.DeleteOlderThan(ctx, cutoff)
}
