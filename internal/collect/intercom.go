package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const intercomBaseURL = "https://api.intercom.io"

// IntercomClient fetches conversations from the Intercom API.
type IntercomClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewIntercomClient creates an Intercom client. The access token is read
// from the environment.
func NewIntercomClient(accessTokenEnv string) *IntercomClient {
	return &IntercomClient{
		baseURL:     intercomBaseURL,
		accessToken: os.Getenv(accessTokenEnv),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether the access token is available.
func (c *IntercomClient) IsConfigured() bool {
	return c.accessToken != ""
}

type intercomConversation struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created_at"`
	Source    struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
		Author  struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
	} `json:"source"`
	CustomAttributes map[string]any `json:"custom_attributes"`
	Tags             struct {
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"tags"`
}

// FetchConversations returns conversations created within the last daysBack
// days, following Intercom's cursor pagination.
func (c *IntercomClient) FetchConversations(daysBack int) []FeedbackItem {
	if !c.IsConfigured() {
		log.Println("Intercom not configured, skipping")
		return nil
	}

	since := time.Now().AddDate(0, 0, -daysBack).Unix()

	var items []FeedbackItem
	cursor := ""
	for {
		page, next, err := c.searchPage(since, cursor)
		if err != nil {
			log.Printf("Intercom fetch error: %v", err)
			break
		}
		items = append(items, page...)
		if next == "" {
			break
		}
		cursor = next
	}

	log.Printf("Fetched %d conversations from Intercom", len(items))
	return items
}

func (c *IntercomClient) searchPage(since int64, cursor string) ([]FeedbackItem, string, error) {
	body := map[string]any{
		"query": map[string]any{
			"field":    "created_at",
			"operator": ">",
			"value":    since,
		},
		"pagination": map[string]any{"per_page": 50},
	}
	if cursor != "" {
		body["pagination"].(map[string]any)["starting_after"] = cursor
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/conversations/search", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result struct {
		Conversations []intercomConversation `json:"conversations"`
		Pages         struct {
			Next struct {
				StartingAfter string `json:"starting_after"`
			} `json:"next"`
		} `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	var items []FeedbackItem
	for _, conv := range result.Conversations {
		item := normalizeConversation(conv)
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, result.Pages.Next.StartingAfter, nil
}

func normalizeConversation(conv intercomConversation) *FeedbackItem {
	if conv.ID == "" {
		return nil
	}

	title := strings.TrimSpace(conv.Source.Subject)
	if title == "" {
		title = "Intercom Conversation"
	}

	var tags []string
	for _, tag := range conv.Tags.Tags {
		tags = append(tags, tag.Name)
	}

	return &FeedbackItem{
		Source:        "intercom",
		SourceID:      conv.ID,
		Title:         title,
		Content:       stripHTML(conv.Source.Body),
		Category:      categorizeTags(tags),
		CustomerID:    conv.Source.Author.ID,
		CustomerEmail: conv.Source.Author.Email,
		CustomerName:  conv.Source.Author.Name,
		CustomerTier:  tierFromPlan(conv.CustomAttributes),
		CreatedAt:     time.Unix(conv.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

// tierFromPlan maps the conversation's plan attribute to a customer tier.
func tierFromPlan(attrs map[string]any) string {
	plan, _ := attrs["plan"].(string)
	plan = strings.ToLower(plan)
	switch {
	case strings.Contains(plan, "enterprise"):
		return "enterprise"
	case strings.Contains(plan, "business"):
		return "business"
	case strings.Contains(plan, "pro"):
		return "professional"
	default:
		return "free"
	}
}
