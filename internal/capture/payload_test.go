package capture

import (
	"testing"
	"time"
)

func validPayload() *CapturePayload {
	postedAt := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)
	return &CapturePayload{
		ExternalID:        "1811234567890",
		AuthorUsername:    "jdoe",
		AuthorDisplayName: "Jane Doe",
		ContentText:       "hello world",
		PostURL:           "https://x.com/jdoe/status/1811234567890",
		PostedAt:          postedAt,
		LikedAt:           postedAt.Add(time.Hour),
		PostType:          "original",
	}
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	if fields := validPayload().Validate(); fields != nil {
		t.Errorf("Validate() = %v, want nil", fields)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CapturePayload)
		field  string
	}{
		{
			name:   "missing external id",
			mutate: func(p *CapturePayload) { p.ExternalID = "" },
			field:  "external_id",
		},
		{
			name:   "missing author username",
			mutate: func(p *CapturePayload) { p.AuthorUsername = "" },
			field:  "author_username",
		},
		{
			name:   "missing display name",
			mutate: func(p *CapturePayload) { p.AuthorDisplayName = "" },
			field:  "author_display_name",
		},
		{
			name:   "missing content",
			mutate: func(p *CapturePayload) { p.ContentText = "" },
			field:  "content_text",
		},
		{
			name:   "missing post url",
			mutate: func(p *CapturePayload) { p.PostURL = "" },
			field:  "post_url",
		},
		{
			name:   "relative post url",
			mutate: func(p *CapturePayload) { p.PostURL = "/jdoe/status/42" },
			field:  "post_url",
		},
		{
			name:   "bad avatar url",
			mutate: func(p *CapturePayload) { p.AuthorAvatarURL = "not a url" },
			field:  "author_avatar_url",
		},
		{
			name:   "missing posted_at",
			mutate: func(p *CapturePayload) { p.PostedAt = time.Time{} },
			field:  "posted_at",
		},
		{
			name:   "missing liked_at",
			mutate: func(p *CapturePayload) { p.LikedAt = time.Time{} },
			field:  "liked_at",
		},
		{
			name:   "liked before posted",
			mutate: func(p *CapturePayload) { p.LikedAt = p.PostedAt.Add(-time.Minute) },
			field:  "liked_at",
		},
		{
			name:   "missing post type",
			mutate: func(p *CapturePayload) { p.PostType = "" },
			field:  "post_type",
		},
		{
			name:   "unknown post type",
			mutate: func(p *CapturePayload) { p.PostType = "promoted" },
			field:  "post_type",
		},
		{
			name:   "negative reply count",
			mutate: func(p *CapturePayload) { p.ReplyCount = -1 },
			field:  "reply_count",
		},
		{
			name:   "negative retweet count",
			mutate: func(p *CapturePayload) { p.RetweetCount = -1 },
			field:  "retweet_count",
		},
		{
			name:   "negative like count",
			mutate: func(p *CapturePayload) { p.LikeCount = -5 },
			field:  "like_count",
		},
		{
			name: "negative view count",
			mutate: func(p *CapturePayload) {
				v := int64(-1)
				p.ViewCount = &v
			},
			field: "view_count",
		},
		{
			name: "screenshot without width",
			mutate: func(p *CapturePayload) {
				p.ScreenshotBase64 = "aGk="
				p.ScreenshotHeight = 100
			},
			field: "screenshot_width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)
			fields := p.Validate()
			if fields == nil {
				t.Fatal("Validate() = nil, want field errors")
			}
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("Validate() missing error for field %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestValidateEqualTimestampsAllowed(t *testing.T) {
	p := validPayload()
	p.LikedAt = p.PostedAt
	if fields := p.Validate(); fields != nil {
		t.Errorf("posted_at == liked_at should be valid, got %v", fields)
	}
}

func TestValidateThreadContext(t *testing.T) {
	p := validPayload()
	p.ThreadContext = []ThreadHint{
		{ExternalID: "1", ContentText: "parent text", AuthorUsername: "a", Relationship: "parent"},
		{ExternalID: "", ContentText: "", AuthorUsername: "b", Relationship: "sibling"},
	}

	fields := p.Validate()
	if fields == nil {
		t.Fatal("Validate() = nil, want field errors for second hint")
	}
	for _, want := range []string{
		"thread_context.1.external_id",
		"thread_context.1.content_text",
		"thread_context.1.relationship",
	} {
		if _, ok := fields[want]; !ok {
			t.Errorf("Validate() missing error for %q, got %v", want, fields)
		}
	}
	if _, ok := fields["thread_context.0.external_id"]; ok {
		t.Error("Validate() flagged the valid first hint")
	}
}

func TestToModel(t *testing.T) {
	p := validPayload()
	p.AuthorAvatarURL = "https://pbs.example.com/avatar.png"
	p.ContentHTML = "<p>hello world</p>"
	p.LanguageCode = "en"
	views := int64(1234)
	p.ViewCount = &views

	post := p.toModel()

	if post.ExternalID != p.ExternalID {
		t.Errorf("ExternalID = %q, want %q", post.ExternalID, p.ExternalID)
	}
	if !post.AuthorAvatarURL.Valid || post.AuthorAvatarURL.String != p.AuthorAvatarURL {
		t.Errorf("AuthorAvatarURL = %+v, want valid %q", post.AuthorAvatarURL, p.AuthorAvatarURL)
	}
	if !post.ViewCount.Valid || post.ViewCount.Int64 != views {
		t.Errorf("ViewCount = %+v, want valid %d", post.ViewCount, views)
	}
	if post.PostedAt.Location() != time.UTC {
		t.Error("PostedAt should be stored in UTC")
	}

	// Optional fields absent stay null
	bare := validPayload().toModel()
	if bare.AuthorAvatarURL.Valid || bare.ContentHTML.Valid || bare.LanguageCode.Valid || bare.ViewCount.Valid {
		t.Error("absent optional fields should map to null columns")
	}
}
