package capture

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/likekeeper/likekeeper/internal/models"
)

// Hint relationships supplied by the scraping layer
const (
	HintParent = "parent"
	HintRoot   = "root"
	HintChild  = "child"
)

// ThreadHint is a stub describing a post related to the one being captured.
// Hints reference posts that may or may not have been captured; they are
// never materialized as posts themselves.
type ThreadHint struct {
	ExternalID     string `json:"external_id"`
	ContentText    string `json:"content_text"`
	AuthorUsername string `json:"author_username"`
	Relationship   string `json:"relationship"`
}

// CapturePayload is the capture request consumed from the HTTP layer
type CapturePayload struct {
	ExternalID        string       `json:"external_id"`
	AuthorUsername    string       `json:"author_username"`
	AuthorDisplayName string       `json:"author_display_name"`
	AuthorAvatarURL   string       `json:"author_avatar_url,omitempty"`
	ContentText       string       `json:"content_text"`
	ContentHTML       string       `json:"content_html,omitempty"`
	LanguageCode      string       `json:"language_code,omitempty"`
	PostURL           string       `json:"post_url"`
	PostedAt          time.Time    `json:"posted_at"`
	LikedAt           time.Time    `json:"liked_at"`
	PostType          string       `json:"post_type"`
	ReplyCount        int64        `json:"reply_count"`
	RetweetCount      int64        `json:"retweet_count"`
	LikeCount         int64        `json:"like_count"`
	ViewCount         *int64       `json:"view_count,omitempty"`
	ScreenshotBase64  string       `json:"screenshot_base64,omitempty"`
	ScreenshotWidth   int          `json:"screenshot_width,omitempty"`
	ScreenshotHeight  int          `json:"screenshot_height,omitempty"`
	ThreadContext     []ThreadHint `json:"thread_context,omitempty"`

	// Session bookkeeping, optional
	BrowserSessionID string `json:"browser_session_id,omitempty"`
	PageURL          string `json:"page_url,omitempty"`
	ExtensionVersion string `json:"extension_version,omitempty"`
}

// Validate checks payload shape, enum membership and timestamp ordering.
// It returns a non-empty field-to-message map when the payload is invalid.
func (p *CapturePayload) Validate() map[string]string {
	fields := make(map[string]string)

	if p.ExternalID == "" {
		fields["external_id"] = "required"
	}
	if p.AuthorUsername == "" {
		fields["author_username"] = "required"
	}
	if p.AuthorDisplayName == "" {
		fields["author_display_name"] = "required"
	}
	if p.ContentText == "" {
		fields["content_text"] = "required"
	}
	if p.PostURL == "" {
		fields["post_url"] = "required"
	} else if !validURL(p.PostURL) {
		fields["post_url"] = "must be a valid absolute URL"
	}
	if p.AuthorAvatarURL != "" && !validURL(p.AuthorAvatarURL) {
		fields["author_avatar_url"] = "must be a valid absolute URL"
	}
	if p.PostedAt.IsZero() {
		fields["posted_at"] = "required"
	}
	if p.LikedAt.IsZero() {
		fields["liked_at"] = "required"
	}
	if !p.PostedAt.IsZero() && !p.LikedAt.IsZero() && p.LikedAt.Before(p.PostedAt) {
		fields["liked_at"] = "must not precede posted_at"
	}
	if p.PostType == "" {
		fields["post_type"] = "required"
	} else if !models.ValidPostType(p.PostType) {
		fields["post_type"] = "must be one of original, retweet, quote, reply"
	}
	if p.ReplyCount < 0 {
		fields["reply_count"] = "must not be negative"
	}
	if p.RetweetCount < 0 {
		fields["retweet_count"] = "must not be negative"
	}
	if p.LikeCount < 0 {
		fields["like_count"] = "must not be negative"
	}
	if p.ViewCount != nil && *p.ViewCount < 0 {
		fields["view_count"] = "must not be negative"
	}
	if p.ScreenshotBase64 != "" {
		if p.ScreenshotWidth < 1 {
			fields["screenshot_width"] = "must be at least 1"
		}
		if p.ScreenshotHeight < 1 {
			fields["screenshot_height"] = "must be at least 1"
		}
	}

	for i, hint := range p.ThreadContext {
		if hint.ExternalID == "" {
			fields[fmt.Sprintf("thread_context.%d.external_id", i)] = "required"
		}
		if hint.ContentText == "" {
			fields[fmt.Sprintf("thread_context.%d.content_text", i)] = "required"
		}
		if hint.AuthorUsername == "" {
			fields[fmt.Sprintf("thread_context.%d.author_username", i)] = "required"
		}
		switch hint.Relationship {
		case HintParent, HintRoot, HintChild:
		default:
			fields[fmt.Sprintf("thread_context.%d.relationship", i)] = "must be one of parent, root, child"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// toModel converts a validated payload to a Post row
func (p *CapturePayload) toModel() *models.Post {
	post := &models.Post{
		ExternalID:        p.ExternalID,
		AuthorUsername:    p.AuthorUsername,
		AuthorDisplayName: p.AuthorDisplayName,
		ContentText:       p.ContentText,
		PostURL:           p.PostURL,
		PostedAt:          p.PostedAt.UTC(),
		LikedAt:           p.LikedAt.UTC(),
		PostType:          p.PostType,
		ReplyCount:        p.ReplyCount,
		RetweetCount:      p.RetweetCount,
		LikeCount:         p.LikeCount,
	}
	if p.AuthorAvatarURL != "" {
		post.AuthorAvatarURL = sql.NullString{String: p.AuthorAvatarURL, Valid: true}
	}
	if p.ContentHTML != "" {
		post.ContentHTML = sql.NullString{String: p.ContentHTML, Valid: true}
	}
	if p.LanguageCode != "" {
		post.LanguageCode = sql.NullString{String: p.LanguageCode, Valid: true}
	}
	if p.ViewCount != nil {
		post.ViewCount = sql.NullInt64{Int64: *p.ViewCount, Valid: true}
	}
	return post
}
