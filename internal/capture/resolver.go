package capture

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/models"
)

// edgeStore is the store surface the resolver needs. The capture service
// passes a transaction-scoped implementation.
type edgeStore interface {
	// ResolvePostID returns the stored post id for an external id, or ""
	// when that post was never captured.
	ResolvePostID(ctx context.Context, externalID string) (string, error)
	EdgeExists(ctx context.Context, childID string, parentID sql.NullString) (bool, error)
	CreateEdge(ctx context.Context, edge *models.ThreadRelationship) error
}

// txEdgeStore backs the resolver with the repositories of one capture
// transaction. Edge inserts run in a nested transaction so a constraint
// violation cannot poison the enclosing capture transaction.
type txEdgeStore struct {
	tx *gorm.DB
}

func newTxEdgeStore(tx *gorm.DB) *txEdgeStore {
	return &txEdgeStore{tx: tx}
}

func (s *txEdgeStore) ResolvePostID(ctx context.Context, externalID string) (string, error) {
	post, err := db.NewPostRepository(db.NewRepository(s.tx)).GetByExternalID(ctx, externalID)
	if err != nil || post == nil {
		return "", err
	}
	return post.ID, nil
}

func (s *txEdgeStore) EdgeExists(ctx context.Context, childID string, parentID sql.NullString) (bool, error) {
	return db.NewRelationshipRepository(db.NewRepository(s.tx)).Exists(ctx, childID, parentID)
}

func (s *txEdgeStore) CreateEdge(ctx context.Context, edge *models.ThreadRelationship) error {
	return s.tx.Transaction(func(inner *gorm.DB) error {
		return db.NewRelationshipRepository(db.NewRepository(inner)).Create(ctx, edge)
	})
}

// Resolver converts thread-context hints attached to a freshly captured
// post into ThreadRelationship edges. Hints referencing posts that were
// never captured are recorded with a null parent (for parent hints) or
// dropped (for root hints); the resolver never creates placeholder posts
// from hint data, so thread graphs stay partial until the referenced post
// is independently captured.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// buildEdge turns one hint into an edge anchored at childID. resolvedID is
// the stored post id the hint's external id resolved to, empty when the
// referenced post was never captured. The second return value is false when
// the hint produces no edge.
func buildEdge(hint ThreadHint, childID, resolvedID string) (*models.ThreadRelationship, bool) {
	edge := &models.ThreadRelationship{
		ChildPostID: childID,
		RootPostID:  childID,
	}

	switch hint.Relationship {
	case HintParent:
		edge.RelationshipType = models.RelationshipReply
		edge.DepthLevel = 1
		if resolvedID != "" {
			edge.ParentPostID = sql.NullString{String: resolvedID, Valid: true}
		}
		// An unresolved parent still yields an edge: the null parent
		// preserves the reply signal itself.
	case HintRoot:
		edge.RelationshipType = models.RelationshipThreadContinuation
		edge.DepthLevel = 1
		if resolvedID != "" {
			edge.RootPostID = resolvedID
		}
	case HintChild:
		// Weak edge: records that at least one child exists. The child
		// is neither looked up nor created.
		edge.RelationshipType = models.RelationshipReply
		edge.DepthLevel = 0
	default:
		return nil, false
	}

	return edge, true
}

// Resolve processes hints in order against store and returns the number of
// edges actually created together with the number of hints that failed.
// Per-hint failures are logged and skipped; duplicate (child, parent) pairs
// are no-ops, counted in neither return value.
func (r *Resolver) Resolve(ctx context.Context, store edgeStore, childID string, hints []ThreadHint) (created, failed int) {
	for _, hint := range hints {
		resolvedID := ""
		if hint.Relationship == HintParent || hint.Relationship == HintRoot {
			id, err := store.ResolvePostID(ctx, hint.ExternalID)
			if err != nil {
				failed++
				r.logger.Warn("Hint lookup failed",
					zap.String("child_post_id", childID),
					zap.String("hint_external_id", hint.ExternalID),
					zap.Error(err))
				continue
			}
			resolvedID = id
		}

		edge, ok := buildEdge(hint, childID, resolvedID)
		if !ok {
			continue
		}

		exists, err := store.EdgeExists(ctx, edge.ChildPostID, edge.ParentPostID)
		if err != nil {
			failed++
			r.logger.Warn("Edge lookup failed",
				zap.String("child_post_id", childID),
				zap.String("relationship", hint.Relationship),
				zap.Error(err))
			continue
		}
		if exists {
			// Idempotent re-submission
			continue
		}

		if err := store.CreateEdge(ctx, edge); err != nil {
			failed++
			r.logger.Warn("Edge creation failed",
				zap.String("child_post_id", childID),
				zap.String("relationship", hint.Relationship),
				zap.Error(err))
			continue
		}
		created++
	}

	return created, failed
}
