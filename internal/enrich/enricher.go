package enrich

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/models"
	"github.com/likekeeper/likekeeper/pkg/logging"
	"github.com/likekeeper/likekeeper/pkg/telemetry"
)

// Result summarizes one enrichment run
type Result struct {
	Processed int
	Failed    int
}

// Enricher backfills language codes and thread flags for posts the capture
// path stored without them. The pass is idempotent: it only visits posts
// with a null enriched_at marker and stamps the marker when done, so
// re-running it never re-processes rows.
type Enricher struct {
	db        *db.DB
	batchSize int
	logger    *zap.Logger
}

// New creates an enricher processing up to batchSize posts per run
func New(database *db.DB, batchSize int) *Enricher {
	return &Enricher{
		db:        database,
		batchSize: batchSize,
		logger:    logging.WithComponent("enrich"),
	}
}

// Run processes one batch of unenriched posts. Per-post failures are
// counted and skipped.
func (e *Enricher) Run(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "enrich.run")
	defer span.End()

	postRepo := db.NewPostRepository(db.NewRepository(e.db.DB))
	posts, err := postRepo.ListUnenriched(ctx, e.batchSize)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, post := range posts {
		if err := e.enrichPost(ctx, post); err != nil {
			result.Failed++
			e.logger.Warn("Post enrichment failed",
				zap.String("post_id", post.ID),
				zap.Error(err))
			continue
		}
		result.Processed++
	}

	if result.Processed > 0 || result.Failed > 0 {
		e.logger.Info("Enrichment batch complete",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed))
	}

	return result, nil
}

// enrichPost backfills one post inside its own transaction
func (e *Enricher) enrichPost(ctx context.Context, post *models.Post) error {
	return e.db.DB.Transaction(func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		postRepo := db.NewPostRepository(repo)
		relRepo := db.NewRelationshipRepository(repo)

		if !post.LanguageCode.Valid {
			post.LanguageCode = sql.NullString{
				String: detectLanguage(post.ContentText),
				Valid:  true,
			}
		}

		inThread, err := relRepo.ExistsForPost(ctx, post.ID)
		if err != nil {
			return err
		}
		if inThread {
			post.IsThreadPost = true
			position := int64(1)
			if edge, err := relRepo.FirstByChild(ctx, post.ID); err != nil {
				return err
			} else if edge != nil {
				position = int64(edge.DepthLevel + 1)
			}
			post.ThreadPosition = sql.NullInt64{Int64: position, Valid: true}
		}

		post.EnrichedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		return postRepo.Update(ctx, post)
	})
}
