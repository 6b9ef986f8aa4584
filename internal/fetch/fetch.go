package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/cbruckner/feedbacklens/internal/database"
)

// Result holds the results of a content fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fetches full review text via HTTP + readability extraction
// for feed records that were collected as excerpts.
type ContentFetcher struct {
	db     *database.DB
	client *http.Client
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(db *database.DB, timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingContent fetches full text for records marked as excerpts.
// After one HTTP-level failure per domain, the remaining records from that
// domain are skipped for this run.
func (f *ContentFetcher) FetchMissingContent() *Result {
	records, err := f.db.GetFeedbackNeedingFetch()
	if err != nil {
		log.Printf("Error getting records needing fetch: %v", err)
		return &Result{}
	}

	if len(records) == 0 {
		log.Println("No records need content fetching")
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, record := range records {
		if record.URL == nil {
			continue
		}
		recordURL := *record.URL

		u, _ := url.Parse(recordURL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			f.db.MarkFetchAttempted(record.ID)
			result.Failed++
			continue
		}

		content, httpErr := f.fetchContent(recordURL)
		if httpErr != nil {
			f.db.MarkFetchAttempted(record.ID)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s — skipping remaining from %s", recordURL, domain)
			continue
		}

		if content != "" {
			f.db.UpdateFeedbackContent(record.ID, content)
			result.Fetched++
			log.Printf("Fetched content for: %s", record.Title)
		} else {
			f.db.MarkFetchAttempted(record.ID)
			result.Failed++
			log.Printf("No extractable content from: %s", recordURL)
		}
	}

	log.Printf("Content fetch complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return result
}

func (f *ContentFetcher) fetchContent(pageURL string) (string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "feedbacklens/1.0 (feedback collector)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(pageURL)
	page, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
