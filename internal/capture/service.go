package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/likekeeper/likekeeper/internal/cache"
	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/models"
	"github.com/likekeeper/likekeeper/internal/storage"
	"github.com/likekeeper/likekeeper/pkg/logging"
	"github.com/likekeeper/likekeeper/pkg/telemetry"
)

const statusCacheTTL = 30 * time.Second

// CaptureResult summarizes one capture call
type CaptureResult struct {
	PostID          string `json:"post_id"`
	ScreenshotSaved bool   `json:"screenshot_saved"`
	EdgesCreated    int    `json:"thread_relationships_created"`
}

// UnlikeResult summarizes one unlike call
type UnlikeResult struct {
	Deleted           bool `json:"deleted"`
	ScreenshotRemoved bool `json:"screenshot_removed"`
}

// Stats is the aggregate status snapshot
type Stats struct {
	TotalPosts        int64            `json:"total_posts"`
	UnenrichedPosts   int64            `json:"unenriched_posts"`
	ScreenshotCount   int64            `json:"screenshot_count"`
	RelationshipCount int64            `json:"thread_relationships"`
	CaptureSessions   int64            `json:"capture_sessions"`
	UniqueAuthors     int64            `json:"unique_authors"`
	PostsByType       map[string]int64 `json:"posts_by_type"`
	LastCapture       *time.Time       `json:"last_capture"`
}

// Service orchestrates capture, unlike and status over the post,
// screenshot and relationship stores
type Service struct {
	db       *db.DB
	blobs    storage.BlobStore
	cache    *cache.Cache
	resolver *Resolver
	logger   *zap.Logger
}

// NewService creates a capture service. redisCache may be nil.
func NewService(database *db.DB, blobs storage.BlobStore, redisCache *cache.Cache) *Service {
	logger := logging.WithComponent("capture")
	return &Service{
		db:       database,
		blobs:    blobs,
		cache:    redisCache,
		resolver: NewResolver(logger),
		logger:   logger,
	}
}

// Capture validates the payload and persists the post, its optional
// screenshot and any thread edges inside one transaction. Screenshot and
// edge failures are soft: they are reflected in the result, never in the
// returned error.
func (s *Service) Capture(ctx context.Context, payload *CapturePayload) (*CaptureResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "capture.capture")
	defer span.End()

	if fields := payload.Validate(); fields != nil {
		return nil, NewValidationError(fields)
	}

	var result CaptureResult
	var softFailures []string
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		postRepo := db.NewPostRepository(repo)

		existing, err := postRepo.GetByExternalID(ctx, payload.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewDuplicateError(payload.ExternalID)
		}

		post := payload.toModel()
		if err := postRepo.Create(ctx, post); err != nil {
			// Concurrent capture of the same external id loses the race
			// on the unique constraint.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewDuplicateError(payload.ExternalID)
			}
			return err
		}
		result.PostID = post.ID

		if payload.ScreenshotBase64 != "" {
			var note string
			result.ScreenshotSaved, note = s.saveScreenshot(ctx, tx, post.ID, payload)
			if note != "" {
				softFailures = append(softFailures, note)
			}
		}

		if len(payload.ThreadContext) > 0 {
			var edgeFailures int
			result.EdgesCreated, edgeFailures = s.resolver.Resolve(ctx, newTxEdgeStore(tx), post.ID, payload.ThreadContext)
			if edgeFailures > 0 {
				softFailures = append(softFailures, fmt.Sprintf("thread_context: %d edge(s) failed", edgeFailures))
			}
		}

		return nil
	})
	if err != nil {
		return nil, AsError(err)
	}

	s.touchSession(ctx, payload, result.ScreenshotSaved, softFailures)
	s.invalidateStatus()

	telemetry.AddCounter(ctx, telemetry.CapturesTotal, 1)
	telemetry.AddCounter(ctx, telemetry.EdgesCreated, int64(result.EdgesCreated))
	if result.ScreenshotSaved {
		telemetry.AddCounter(ctx, telemetry.ScreenshotsSaved, 1)
	}

	s.logger.Info("Post captured",
		zap.String("post_id", result.PostID),
		zap.String("external_id", payload.ExternalID),
		zap.Bool("screenshot_saved", result.ScreenshotSaved),
		zap.Int("edges_created", result.EdgesCreated))

	return &result, nil
}

// saveScreenshot decodes and persists the screenshot for postID. The blob
// write happens before the metadata row so a storage failure leaves no row
// behind; the metadata insert runs in a savepoint so its failure cannot
// poison the capture transaction. Always soft-fails; the note describes the
// failure for session bookkeeping, empty on success.
func (s *Service) saveScreenshot(ctx context.Context, tx *gorm.DB, postID string, payload *CapturePayload) (bool, string) {
	data, format, err := decodeScreenshot(payload.ScreenshotBase64)
	if err != nil {
		s.logger.Warn("Screenshot decode failed",
			zap.String("post_id", postID),
			zap.Error(err))
		return false, fmt.Sprintf("screenshot decode failed: %v", err)
	}

	key := storage.ScreenshotKey(postID, format)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		s.logger.Warn("Screenshot blob write failed",
			zap.String("post_id", postID),
			zap.Error(err))
		return false, "screenshot storage write failed"
	}

	shot := &models.Screenshot{
		PostID:        postID,
		StoragePath:   key,
		ImageFormat:   format,
		SizeBytes:     int64(len(data)),
		Width:         payload.ScreenshotWidth,
		Height:        payload.ScreenshotHeight,
		CaptureMethod: models.CaptureMethodFullPost,
		QualityScore:  1.0,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return db.NewScreenshotRepository(db.NewRepository(inner)).Create(ctx, shot)
	})
	if err != nil {
		s.logger.Warn("Screenshot metadata write failed",
			zap.String("post_id", postID),
			zap.Error(err))
		// The blob is orphaned; the cleanup pass reclaims it.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Orphaned screenshot blob left behind",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return false, "screenshot metadata write failed"
	}

	return true, ""
}

// Unlike removes the post identified by externalID together with its
// screenshot and every edge referencing it, in one transaction. Blob
// deletion failure is logged and tolerated; the metadata rows are the
// authoritative record.
func (s *Service) Unlike(ctx context.Context, externalID string) (*UnlikeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "capture.unlike")
	defer span.End()

	var result UnlikeResult
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		postRepo := db.NewPostRepository(repo)
		shotRepo := db.NewScreenshotRepository(repo)
		relRepo := db.NewRelationshipRepository(repo)

		post, err := postRepo.GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		if post == nil {
			return NewNotFoundError(externalID)
		}

		shot, err := shotRepo.GetByPostID(ctx, post.ID)
		if err != nil {
			return err
		}
		if shot != nil {
			if err := s.blobs.Delete(ctx, shot.StoragePath); err != nil {
				s.logger.Warn("Screenshot blob deletion failed",
					zap.String("post_id", post.ID),
					zap.String("key", shot.StoragePath),
					zap.Error(err))
			}
			if err := shotRepo.DeleteByPostID(ctx, post.ID); err != nil {
				return err
			}
			result.ScreenshotRemoved = true
		}

		if err := relRepo.DeleteByPostID(ctx, post.ID); err != nil {
			return err
		}
		if err := postRepo.Delete(ctx, post.ID); err != nil {
			return err
		}

		result.Deleted = true
		return nil
	})
	if err != nil {
		return nil, AsError(err)
	}

	s.invalidateStatus()

	s.logger.Info("Post unliked",
		zap.String("external_id", externalID),
		zap.Bool("screenshot_removed", result.ScreenshotRemoved))

	return &result, nil
}

// Status returns aggregate counts over the stores. Results are served from
// the Redis cache for a short window when one is configured.
func (s *Service) Status(ctx context.Context) (*Stats, error) {
	ctx, span := telemetry.StartSpan(ctx, "capture.status")
	defer span.End()

	cacheKey := cache.HashKey("status", "v1")
	if s.cache != nil {
		var cached Stats
		if err := s.cache.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	repo := db.NewRepository(s.db.DB)
	postRepo := db.NewPostRepository(repo)
	shotRepo := db.NewScreenshotRepository(repo)
	relRepo := db.NewRelationshipRepository(repo)
	sessionRepo := db.NewSessionRepository(repo)

	stats := &Stats{}
	var err error
	if stats.TotalPosts, err = postRepo.Count(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.UnenrichedPosts, err = postRepo.CountUnenriched(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.ScreenshotCount, err = shotRepo.Count(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.RelationshipCount, err = relRepo.Count(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.CaptureSessions, err = sessionRepo.Count(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.UniqueAuthors, err = postRepo.CountUniqueAuthors(ctx); err != nil {
		return nil, AsError(err)
	}
	if stats.PostsByType, err = postRepo.CountByType(ctx); err != nil {
		return nil, AsError(err)
	}
	last, err := postRepo.LastCaptureTime(ctx)
	if err != nil {
		return nil, AsError(err)
	}
	if !last.IsZero() {
		stats.LastCapture = &last
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(cacheKey, stats, statusCacheTTL); err != nil {
			s.logger.Debug("Status cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

// appendSessionErrors merges soft-failure notes into the session's stored
// error list. A column that fails to parse is treated as empty rather than
// blocking the append.
func appendSessionErrors(existing datatypes.JSON, notes []string) datatypes.JSON {
	if len(notes) == 0 {
		return existing
	}
	var errs []string
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &errs); err != nil {
			errs = nil
		}
	}
	errs = append(errs, notes...)
	raw, err := json.Marshal(errs)
	if err != nil {
		return existing
	}
	return datatypes.JSON(raw)
}

// touchSession records the capture against its browser session, creating
// the session row on first sight. Soft failures from the capture are
// appended to the session's error list. Best effort, outside the capture
// transaction.
func (s *Service) touchSession(ctx context.Context, payload *CapturePayload, screenshotSaved bool, softFailures []string) {
	if payload.BrowserSessionID == "" {
		return
	}
	logger := logging.WithSession(payload.BrowserSessionID)

	repo := db.NewRepository(s.db.DB)
	sessionRepo := db.NewSessionRepository(repo)

	session, err := sessionRepo.GetByBrowserSessionID(ctx, payload.BrowserSessionID)
	if err != nil {
		logger.Warn("Session lookup failed", zap.Error(err))
		return
	}
	if session == nil {
		session = &models.CaptureSession{
			BrowserSessionID: payload.BrowserSessionID,
			PageURL:          payload.PageURL,
			ExtensionVersion: payload.ExtensionVersion,
		}
		session.PostsCaptured = 1
		if screenshotSaved {
			session.ScreenshotsCaptured = 1
		}
		session.ErrorsEncountered = appendSessionErrors(nil, softFailures)
		if err := sessionRepo.Create(ctx, session); err != nil {
			logger.Warn("Session creation failed", zap.Error(err))
		}
		return
	}

	session.PostsCaptured++
	if screenshotSaved {
		session.ScreenshotsCaptured++
	}
	session.ErrorsEncountered = appendSessionErrors(session.ErrorsEncountered, softFailures)
	if err := sessionRepo.Update(ctx, session); err != nil {
		logger.Warn("Session update failed", zap.Error(err))
	}
}

// invalidateStatus drops the cached status snapshot after a write
func (s *Service) invalidateStatus() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(cache.HashKey("status", "v1")); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Debug("Status cache invalidation failed", zap.Error(err))
	}
}
