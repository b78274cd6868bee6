package export

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/likekeeper/likekeeper/internal/models"
)

func samplePost() *models.Post {
	postedAt := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)
	return &models.Post{
		ID:                "9d1f0b9e-1111-2222-3333-444455556666",
		ExternalID:        "1811234567890",
		AuthorUsername:    "jdoe",
		AuthorDisplayName: "Jane Doe",
		ContentText:       "hello, \"quoted\" world",
		PostURL:           "https://x.com/jdoe/status/1811234567890",
		PostedAt:          postedAt,
		LikedAt:           postedAt.Add(time.Hour),
		CapturedAt:        postedAt.Add(2 * time.Hour),
		PostType:          models.PostTypeOriginal,
		LikeCount:         10,
		RetweetCount:      2,
		ReplyCount:        1,
	}
}

func TestBuildRecord(t *testing.T) {
	post := samplePost()
	post.LanguageCode = sql.NullString{String: "en", Valid: true}
	post.ViewCount = sql.NullInt64{Int64: 5000, Valid: true}
	post.IsThreadPost = true
	post.ThreadPosition = sql.NullInt64{Int64: 2, Valid: true}
	post.Screenshot = &models.Screenshot{PostID: post.ID}

	rec := buildRecord(post, 3)

	if rec.ExternalID != post.ExternalID {
		t.Errorf("ExternalID = %q, want %q", rec.ExternalID, post.ExternalID)
	}
	if rec.Content.Language != "en" {
		t.Errorf("Language = %q, want en", rec.Content.Language)
	}
	if rec.Engagement.Views == nil || *rec.Engagement.Views != 5000 {
		t.Errorf("Views = %v, want 5000", rec.Engagement.Views)
	}
	if rec.Thread.ThreadPosition == nil || *rec.Thread.ThreadPosition != 2 {
		t.Errorf("ThreadPosition = %v, want 2", rec.Thread.ThreadPosition)
	}
	if rec.Thread.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", rec.Thread.EdgeCount)
	}
	if !rec.HasScreenshot {
		t.Error("HasScreenshot = false, want true")
	}

	// Null columns stay absent
	bare := buildRecord(samplePost(), 0)
	if bare.Engagement.Views != nil || bare.Thread.ThreadPosition != nil || bare.HasScreenshot {
		t.Error("null columns should not surface in the record")
	}
}

func TestEncodeJSON(t *testing.T) {
	records := []Record{buildRecord(samplePost(), 0)}

	var buf bytes.Buffer
	if err := encodeJSON(&buf, records); err != nil {
		t.Fatalf("encodeJSON() error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d records, want 1", len(decoded))
	}
	if decoded[0]["external_id"] != "1811234567890" {
		t.Errorf("external_id = %v, want 1811234567890", decoded[0]["external_id"])
	}
	author, ok := decoded[0]["author"].(map[string]interface{})
	if !ok || author["username"] != "jdoe" {
		t.Errorf("author block = %v, want username jdoe", decoded[0]["author"])
	}
}

func TestEncodeCSV(t *testing.T) {
	records := []Record{buildRecord(samplePost(), 1)}

	var buf bytes.Buffer
	if err := encodeCSV(&buf, records); err != nil {
		t.Fatalf("encodeCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 record", len(rows))
	}
	if len(rows[0]) != len(csvHeader) {
		t.Errorf("header has %d columns, want %d", len(rows[0]), len(csvHeader))
	}
	if rows[1][1] != "1811234567890" {
		t.Errorf("external_id column = %q, want 1811234567890", rows[1][1])
	}
	// Quoting survives the round trip
	if !strings.Contains(rows[1][4], `"quoted"`) {
		t.Errorf("content column = %q, want embedded quotes preserved", rows[1][4])
	}
}

func TestEncodeCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := encodeCSV(&buf, nil); err != nil {
		t.Fatalf("encodeCSV() error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}
