package collect

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
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

func TestZendeskFetchTickets(t *testing.T) {
	created := time.Now().UTC().Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v2/search.json") {
			http.NotFound(w, r)
			return
		}
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{
			"results": [
				{
					"id": 101,
					"subject": "App keeps crashing",
					"description": "The app crashes whenever I open a report",
					"priority": "urgent",
					"status": "open",
					"tags": ["bug", "mobile"],
					"requester_id": 55,
					"created_at": "` + created + `"
				},
				{
					"id": 102,
					"subject": "",
					"description": "No subject here",
					"priority": "low",
					"requester_id": 56,
					"created_at": "` + created + `"
				}
			],
			"next_page": ""
		}`))
	}))
	defer srv.Close()

	client := &ZendeskClient{
		baseURL:  srv.URL,
		email:    "support@acme.com",
		apiToken: "token",
		client:   srv.Client(),
	}

	items := client.FetchTickets(7)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.SourceID != "101" || first.Source != "zendesk" {
		t.Errorf("unexpected identity: %+v", first)
	}
	if first.Category != "bug_report" {
		t.Errorf("category = %s, want bug_report", first.Category)
	}
	if first.CustomerTier != "enterprise" || first.Severity != "critical" {
		t.Errorf("urgent ticket mapping: tier=%s severity=%s", first.CustomerTier, first.Severity)
	}
	if items[1].Title != "No Subject" {
		t.Errorf("empty subject title = %q", items[1].Title)
	}
	if items[1].Severity != "low" || items[1].CustomerTier != "free" {
		t.Errorf("low ticket mapping: %+v", items[1])
	}
}

func TestZendeskUnconfigured(t *testing.T) {
	client := &ZendeskClient{client: http.DefaultClient}
	if client.IsConfigured() {
		t.Error("expected unconfigured client")
	}
	if items := client.FetchTickets(7); items != nil {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestIntercomFetchConversations(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour).Unix()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/search" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		calls++
		if calls == 1 {
			w.Write([]byte(`{
				"conversations": [
					{
						"id": "conv-1",
						"state": "open",
						"created_at": ` + strconv.FormatInt(created, 10) + `,
						"source": {
							"subject": "Billing question",
							"body": "<p>Why was I charged twice?</p>",
							"author": {"id": "u1", "name": "Pat", "email": "pat@example.com"}
						},
						"custom_attributes": {"plan": "Enterprise Annual"},
						"tags": {"tags": [{"name": "billing"}]}
					}
				],
				"pages": {"next": {"starting_after": "cursor-2"}}
			}`))
			return
		}
		w.Write([]byte(`{"conversations": [], "pages": {"next": {"starting_after": ""}}}`))
	}))
	defer srv.Close()

	client := &IntercomClient{
		baseURL:     srv.URL,
		accessToken: "secret",
		client:      srv.Client(),
	}

	items := client.FetchConversations(7)
	if calls != 2 {
		t.Errorf("expected cursor pagination to make 2 calls, got %d", calls)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Source != "intercom" || item.SourceID != "conv-1" {
		t.Errorf("unexpected identity: %+v", item)
	}
	if item.Content != "Why was I charged twice?" {
		t.Errorf("HTML not stripped: %q", item.Content)
	}
	if item.CustomerTier != "enterprise" || item.Category != "billing" {
		t.Errorf("tier=%s category=%s", item.CustomerTier, item.Category)
	}
	if item.CustomerEmail != "pat@example.com" {
		t.Errorf("email = %s", item.CustomerEmail)
	}
}

func TestFeedParserMarksExcerpts(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>Product Reviews</title>
	<item>
		<title>Short review</title>
		<link>https://reviews.example.com/r/1</link>
		<description>Too short.</description>
		<pubDate>` + now + `</pubDate>
	</item>
</channel></rss>`))
	}))
	defer srv.Close()

	parser := NewFeedParser([]FeedConfig{{URL: srv.URL, Name: "Example Reviews"}})
	items := parser.ParseAll(7)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !items[0].NeedsFetch {
		t.Error("short review should be marked for content fetch")
	}
	if items[0].Category != "review" || items[0].URL == "" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestCollectorStoresAndDeduplicates(t *testing.T) {
	db := openTestDB(t)
	c := &Collector{db: db}

	items := []FeedbackItem{
		{
			Source:       "zendesk",
			SourceID:     "1",
			Title:        "Crash on export",
			Content:      "export crashes",
			CustomerID:   "u1",
			CustomerTier: "enterprise",
			Severity:     "high",
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		},
		{
			Source:     "zendesk",
			SourceID:   "1", // duplicate
			Title:      "Crash on export",
			Content:    "export crashes",
			CustomerID: "u1",
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		},
	}

	r := &Result{Sources: make(map[string]int)}
	c.store(r, items)

	if r.TotalFound != 2 || r.NewRecords != 1 || r.Duplicates != 1 {
		t.Errorf("result = %+v", r)
	}
	if r.Sources["zendesk"] != 1 {
		t.Errorf("sources = %v", r.Sources)
	}

	stored, err := db.SearchFeedback(database.SearchFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(stored))
	}
	if stored[0].Severity == nil || *stored[0].Severity != "high" {
		t.Errorf("severity not stored: %+v", stored[0])
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello &amp; <b>world</b></p>")
	if got != "Hello & world" {
		t.Errorf("stripHTML = %q", got)
	}
}

func TestExtractSourceName(t *testing.T) {
	cases := map[string]string{
		"https://reviews.example.com/feed": "Example",
		"https://www.trustpilot.com/rss":   "Trustpilot",
	}
	for input, want := range cases {
		if got := extractSourceName(input); got != want {
			t.Errorf("extractSourceName(%q) = %q, want %q", input, got, want)
		}
	}
}

