package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/models"
	"github.com/likekeeper/likekeeper/pkg/logging"
)

// Export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Author is the author block of an exported post
type Author struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Content is the content block of an exported post
type Content struct {
	Text     string `json:"text"`
	HTML     string `json:"html,omitempty"`
	Language string `json:"language,omitempty"`
}

// Engagement is the counter block of an exported post
type Engagement struct {
	Likes    int64  `json:"likes"`
	Retweets int64  `json:"retweets"`
	Replies  int64  `json:"replies"`
	Views    *int64 `json:"views,omitempty"`
}

// Thread is the thread block of an exported post
type Thread struct {
	IsThreadPost   bool   `json:"is_thread_post"`
	ThreadPosition *int64 `json:"thread_position,omitempty"`
	EdgeCount      int    `json:"relationship_count"`
}

// Record is one exported post
type Record struct {
	ID            string     `json:"id"`
	ExternalID    string     `json:"external_id"`
	Author        Author     `json:"author"`
	Content       Content    `json:"content"`
	PostURL       string     `json:"post_url"`
	PostedAt      time.Time  `json:"posted_at"`
	LikedAt       time.Time  `json:"liked_at"`
	CapturedAt    time.Time  `json:"captured_at"`
	PostType      string     `json:"post_type"`
	Engagement    Engagement `json:"engagement"`
	Thread        Thread     `json:"thread"`
	HasScreenshot bool       `json:"has_screenshot"`
}

// Exporter writes stored posts to an output stream for external analysis
type Exporter struct {
	db     *db.DB
	logger *zap.Logger
}

// New creates an exporter
func New(database *db.DB) *Exporter {
	return &Exporter{
		db:     database,
		logger: logging.WithComponent("export"),
	}
}

// Export writes all posts ordered by liked_at in the requested format and
// returns the number of records written
func (e *Exporter) Export(ctx context.Context, format string, w io.Writer) (int, error) {
	repo := db.NewRepository(e.db.DB)
	postRepo := db.NewPostRepository(repo)
	relRepo := db.NewRelationshipRepository(repo)

	posts, err := postRepo.ListOrdered(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]Record, 0, len(posts))
	for _, post := range posts {
		edges, err := relRepo.ListByChild(ctx, post.ID)
		if err != nil {
			return 0, err
		}
		records = append(records, buildRecord(post, len(edges)))
	}

	switch format {
	case FormatJSON:
		err = encodeJSON(w, records)
	case FormatCSV:
		err = encodeCSV(w, records)
	default:
		return 0, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return 0, err
	}

	e.logger.Info("Export complete",
		zap.String("format", format),
		zap.Int("records", len(records)))

	return len(records), nil
}

// buildRecord maps a post row to its export shape
func buildRecord(post *models.Post, edgeCount int) Record {
	rec := Record{
		ID:         post.ID,
		ExternalID: post.ExternalID,
		Author: Author{
			Username:    post.AuthorUsername,
			DisplayName: post.AuthorDisplayName,
		},
		Content: Content{
			Text: post.ContentText,
		},
		PostURL:    post.PostURL,
		PostedAt:   post.PostedAt,
		LikedAt:    post.LikedAt,
		CapturedAt: post.CapturedAt,
		PostType:   post.PostType,
		Engagement: Engagement{
			Likes:    post.LikeCount,
			Retweets: post.RetweetCount,
			Replies:  post.ReplyCount,
		},
		Thread: Thread{
			IsThreadPost: post.IsThreadPost,
			EdgeCount:    edgeCount,
		},
		HasScreenshot: post.Screenshot != nil,
	}
	if post.AuthorAvatarURL.Valid {
		rec.Author.AvatarURL = post.AuthorAvatarURL.String
	}
	if post.ContentHTML.Valid {
		rec.Content.HTML = post.ContentHTML.String
	}
	if post.LanguageCode.Valid {
		rec.Content.Language = post.LanguageCode.String
	}
	if post.ViewCount.Valid {
		views := post.ViewCount.Int64
		rec.Engagement.Views = &views
	}
	if post.ThreadPosition.Valid {
		position := post.ThreadPosition.Int64
		rec.Thread.ThreadPosition = &position
	}
	return rec
}

func encodeJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var csvHeader = []string{
	"id", "external_id", "author_username", "author_display_name",
	"content_text", "language", "post_url", "posted_at", "liked_at",
	"captured_at", "post_type", "like_count", "retweet_count",
	"reply_count", "view_count", "is_thread_post", "thread_position",
	"relationship_count", "has_screenshot",
}

func encodeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		views := ""
		if rec.Engagement.Views != nil {
			views = strconv.FormatInt(*rec.Engagement.Views, 10)
		}
		position := ""
		if rec.Thread.ThreadPosition != nil {
			position = strconv.FormatInt(*rec.Thread.ThreadPosition, 10)
		}
		row := []string{
			rec.ID,
			rec.ExternalID,
			rec.Author.Username,
			rec.Author.DisplayName,
			rec.Content.Text,
			rec.Content.Language,
			rec.PostURL,
			rec.PostedAt.Format(time.RFC3339),
			rec.LikedAt.Format(time.RFC3339),
			rec.CapturedAt.Format(time.RFC3339),
			rec.PostType,
			strconv.FormatInt(rec.Engagement.Likes, 10),
			strconv.FormatInt(rec.Engagement.Retweets, 10),
			strconv.FormatInt(rec.Engagement.Replies, 10),
			views,
			strconv.FormatBool(rec.Thread.IsThreadPost),
			position,
			strconv.Itoa(rec.Thread.EdgeCount),
			strconv.FormatBool(rec.HasScreenshot),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
