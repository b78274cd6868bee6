package capture

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/storage"
	"github.com/likekeeper/likekeeper/pkg/logging"
)

// newTestService builds a service over an embedded SQLite database and a
// local blob store, both scoped to the test's temp dir
func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	logging.Logger = zap.NewNop()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "capture.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	database := &db.DB{DB: gdb}
	if err := database.Migrate(); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating blob store: %v", err)
	}

	return NewService(database, blobs, nil), database
}

func TestCaptureRejectsDuplicateExternalID(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Capture(ctx, validPayload()); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	_, err := service.Capture(ctx, validPayload())
	if err == nil {
		t.Fatal("second capture of the same external id should fail")
	}
	if kind := KindOf(err); kind != KindDuplicate {
		t.Errorf("error kind = %v, want %v", kind, KindDuplicate)
	}
}

func TestCaptureScreenshotDecodeFailureIsSoft(t *testing.T) {
	service, database := newTestService(t)
	ctx := context.Background()

	payload := validPayload()
	payload.ScreenshotBase64 = "!!not-base64!!"
	payload.ScreenshotWidth = 800
	payload.ScreenshotHeight = 600

	result, err := service.Capture(ctx, payload)
	if err != nil {
		t.Fatalf("capture should succeed despite the bad screenshot: %v", err)
	}
	if result.ScreenshotSaved {
		t.Error("ScreenshotSaved = true, want false")
	}

	post, err := db.NewPostRepository(db.NewRepository(database.DB)).GetByExternalID(ctx, payload.ExternalID)
	if err != nil || post == nil {
		t.Fatalf("post should have been persisted, got (%v, %v)", post, err)
	}
}

func TestUnlikeRemovesPostScreenshotAndEdges(t *testing.T) {
	service, database := newTestService(t)
	ctx := context.Background()

	parent := validPayload()
	parent.ExternalID = "111"
	parent.PostURL = "https://x.com/jdoe/status/111"
	if _, err := service.Capture(ctx, parent); err != nil {
		t.Fatalf("capturing parent: %v", err)
	}

	child := validPayload()
	child.ExternalID = "222"
	child.PostURL = "https://x.com/jdoe/status/222"
	child.PostType = "reply"
	child.ScreenshotBase64 = base64.StdEncoding.EncodeToString(pngBytes)
	child.ScreenshotWidth = 800
	child.ScreenshotHeight = 600
	child.ThreadContext = []ThreadHint{{ExternalID: "111", ContentText: "parent text", AuthorUsername: "jdoe", Relationship: HintParent}}

	result, err := service.Capture(ctx, child)
	if err != nil {
		t.Fatalf("capturing child: %v", err)
	}
	if !result.ScreenshotSaved {
		t.Fatal("ScreenshotSaved = false, want true")
	}
	if result.EdgesCreated != 1 {
		t.Fatalf("EdgesCreated = %d, want 1", result.EdgesCreated)
	}

	unliked, err := service.Unlike(ctx, "222")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if !unliked.Deleted || !unliked.ScreenshotRemoved {
		t.Errorf("Unlike result = %+v, want deleted with screenshot removed", unliked)
	}

	repo := db.NewRepository(database.DB)
	post, err := db.NewPostRepository(repo).GetByExternalID(ctx, "222")
	if err != nil || post != nil {
		t.Errorf("post should be gone, got (%v, %v)", post, err)
	}
	count, err := db.NewRelationshipRepository(repo).Count(ctx)
	if err != nil {
		t.Fatalf("counting edges: %v", err)
	}
	if count != 0 {
		t.Errorf("edge count after unlike = %d, want 0", count)
	}

	_, err = service.Unlike(ctx, "222")
	if kind := KindOf(err); kind != KindNotFound {
		t.Errorf("second unlike error kind = %v, want %v", kind, KindNotFound)
	}
}

func TestCaptureRecordsSessionSoftFailures(t *testing.T) {
	service, database := newTestService(t)
	ctx := context.Background()

	payload := validPayload()
	payload.BrowserSessionID = "bs-1"
	payload.ScreenshotBase64 = "!!not-base64!!"
	payload.ScreenshotWidth = 800
	payload.ScreenshotHeight = 600

	if _, err := service.Capture(ctx, payload); err != nil {
		t.Fatalf("capture: %v", err)
	}

	session, err := db.NewSessionRepository(db.NewRepository(database.DB)).GetByBrowserSessionID(ctx, "bs-1")
	if err != nil || session == nil {
		t.Fatalf("session should exist, got (%v, %v)", session, err)
	}
	if session.PostsCaptured != 1 {
		t.Errorf("PostsCaptured = %d, want 1", session.PostsCaptured)
	}
	if len(session.ErrorsEncountered) == 0 {
		t.Error("ErrorsEncountered should record the screenshot failure")
	}
}

func TestAppendSessionErrors(t *testing.T) {
	tests := []struct {
		name     string
		existing datatypes.JSON
		notes    []string
		want     string
	}{
		{
			name:  "appends to empty column",
			notes: []string{"screenshot decode failed: bad data"},
			want:  `["screenshot decode failed: bad data"]`,
		},
		{
			name:     "merges with stored errors",
			existing: datatypes.JSON(`["earlier failure"]`),
			notes:    []string{"thread_context: 1 edge(s) failed"},
			want:     `["earlier failure","thread_context: 1 edge(s) failed"]`,
		},
		{
			name:     "no notes leaves column untouched",
			existing: datatypes.JSON(`["earlier failure"]`),
			want:     `["earlier failure"]`,
		},
		{
			name:     "unparseable column is replaced",
			existing: datatypes.JSON(`{broken`),
			notes:    []string{"new failure"},
			want:     `["new failure"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendSessionErrors(tt.existing, tt.notes)
			if string(got) != tt.want {
				t.Errorf("appendSessionErrors() = %s, want %s", got, tt.want)
			}
		})
	}
}
