package fetch

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbruckner/feedbacklens/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertExcerpt(t *testing.T, db *database.DB, sourceID, pageURL string) int64 {
	t.Helper()
	id, err := db.InsertFeedback(&database.Feedback{
		Source:    "Example Reviews",
		SourceID:  sourceID,
		Title:     "Review " + sourceID,
		Content:   "short excerpt",
		URL:       &pageURL,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return id
}

func TestFetchMissingContent(t *testing.T) {
	body := "<html><body><article><p>" + strings.Repeat("A long review paragraph. ", 20) +
		"</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	db := openTestDB(t)
	okID := insertExcerpt(t, db, "r1", srv.URL+"/review/1")

	fetcher := NewContentFetcher(db, 5*time.Second)
	result := fetcher.FetchMissingContent()

	if result.Fetched != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	record, err := db.GetFeedbackByID(okID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !record.ContentFetched || !strings.Contains(record.Content, "long review paragraph") {
		t.Errorf("content not updated: fetched=%v", record.ContentFetched)
	}

	// Nothing left to fetch.
	again := fetcher.FetchMissingContent()
	if again.Fetched != 0 || again.Failed != 0 {
		t.Errorf("second run = %+v", again)
	}
}

func TestFetchSkipsDomainAfterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	db := openTestDB(t)
	insertExcerpt(t, db, "r1", srv.URL+"/a")
	insertExcerpt(t, db, "r2", srv.URL+"/b")

	fetcher := NewContentFetcher(db, 5*time.Second)
	result := fetcher.FetchMissingContent()
	if result.Failed != 2 || result.Fetched != 0 {
		t.Errorf("result = %+v", result)
	}

	// Both were marked attempted despite only one request per failing domain.
	remaining, err := db.GetFeedbackNeedingFetch()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d records still pending fetch", len(remaining))
	}
}
