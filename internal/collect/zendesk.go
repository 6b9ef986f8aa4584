package collect

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// FeedbackItem is a normalized record from any source, ready for storage.
type FeedbackItem struct {
	Source        string
	SourceID      string
	Title         string
	Content       string
	Category      string
	URL           string
	NeedsFetch    bool // content is an excerpt, full text fetched later
	CustomerID    string
	CustomerEmail string
	CustomerName  string
	CustomerTier  string
	Severity      string
	CreatedAt     string // RFC 3339
}

// ZendeskClient fetches support tickets from the Zendesk search API.
type ZendeskClient struct {
	baseURL  string
	email    string
	apiToken string
	client   *http.Client
}

// NewZendeskClient creates a Zendesk client for the given subdomain. The API
// token is read from the environment.
func NewZendeskClient(subdomain, email, apiTokenEnv string) *ZendeskClient {
	return &ZendeskClient{
		baseURL:  fmt.Sprintf("https://%s.zendesk.com", subdomain),
		email:    email,
		apiToken: os.Getenv(apiTokenEnv),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether credentials are available.
func (c *ZendeskClient) IsConfigured() bool {
	return c.email != "" && c.apiToken != ""
}

type zendeskTicket struct {
	ID          int64    `json:"id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	RequesterID int64    `json:"requester_id"`
	CreatedAt   string   `json:"created_at"`
	URL         string   `json:"url"`
}

// FetchTickets returns tickets created within the last daysBack days,
// following Zendesk's next_page pagination.
func (c *ZendeskClient) FetchTickets(daysBack int) []FeedbackItem {
	if !c.IsConfigured() {
		log.Println("Zendesk not configured, skipping")
		return nil
	}

	since := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	params := url.Values{
		"query":      {fmt.Sprintf("type:ticket created>=%s", since)},
		"sort_by":    {"created_at"},
		"sort_order": {"desc"},
	}
	next := c.baseURL + "/api/v2/search.json?" + params.Encode()

	var items []FeedbackItem
	for next != "" {
		page, nextPage, err := c.fetchPage(next)
		if err != nil {
			log.Printf("Zendesk fetch error: %v", err)
			break
		}
		items = append(items, page...)
		next = nextPage
	}

	log.Printf("Fetched %d tickets from Zendesk", len(items))
	return items
}

func (c *ZendeskClient) fetchPage(pageURL string) ([]FeedbackItem, string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(c.email+"/token", c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result struct {
		Results  []zendeskTicket `json:"results"`
		NextPage string          `json:"next_page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	var items []FeedbackItem
	for _, ticket := range result.Results {
		item := normalizeTicket(ticket)
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, result.NextPage, nil
}

func normalizeTicket(ticket zendeskTicket) *FeedbackItem {
	if ticket.ID == 0 {
		return nil
	}

	title := strings.TrimSpace(ticket.Subject)
	if title == "" {
		title = "No Subject"
	}

	return &FeedbackItem{
		Source:       "zendesk",
		SourceID:     fmt.Sprintf("%d", ticket.ID),
		Title:        title,
		Content:      strings.TrimSpace(ticket.Description),
		Category:     categorizeTags(ticket.Tags),
		CustomerID:   fmt.Sprintf("%d", ticket.RequesterID),
		CustomerTier: tierFromPriority(ticket.Priority),
		Severity:     severityFromPriority(ticket.Priority),
		CreatedAt:    ticket.CreatedAt,
	}
}

// tierFromPriority is a coarse stand-in for real account data: urgent and
// high priority tickets tend to come from paying organizations.
func tierFromPriority(priority string) string {
	switch priority {
	case "urgent", "high":
		return "enterprise"
	case "normal":
		return "business"
	default:
		return "free"
	}
}

func severityFromPriority(priority string) string {
	switch priority {
	case "urgent":
		return "critical"
	case "high":
		return "high"
	case "normal":
		return "medium"
	case "low":
		return "low"
	default:
		return ""
	}
}

var tagCategories = []struct {
	tag      string
	category string
}{
	{"bug", "bug_report"},
	{"feature", "feature_request"},
	{"question", "support"},
	{"billing", "billing"},
	{"technical", "technical"},
	{"feedback", "feedback"},
}

func categorizeTags(tags []string) string {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, tc := range tagCategories {
			if strings.Contains(lower, tc.tag) {
				return tc.category
			}
		}
	}
	return "general"
}
