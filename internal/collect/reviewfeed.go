package collect

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	maxPerFeed = 50
	// Entries with less content than this are treated as excerpts and
	// queued for a full content fetch.
	excerptThreshold = 200
)

// FeedConfig is a single review feed to poll.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser collects review entries from RSS/Atom feeds.
type FeedParser struct {
	feeds []FeedConfig
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []FeedConfig) *FeedParser {
	return &FeedParser{feeds: feeds}
}

// ParseAll parses all configured feeds and returns entries within daysBack.
func (fp *FeedParser) ParseAll(daysBack int) []FeedbackItem {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var all []FeedbackItem

	parser := gofeed.NewParser()
	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		items, err := parseFeed(parser, fc.URL, name, cutoff)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}
		all = append(all, items...)
		log.Printf("Parsed %d reviews from %s (within %d days)", len(items), name, daysBack)
	}

	return all
}

func parseFeed(parser *gofeed.Parser, feedURL, sourceName string, cutoff time.Time) ([]FeedbackItem, error) {
	feed, err := parser.ParseURL(feedURL)
	if err != nil {
		return nil, err
	}

	var items []FeedbackItem
	for _, entry := range feed.Items {
		if len(items) >= maxPerFeed {
			break
		}

		item := parseItem(entry, sourceName)
		if item == nil {
			continue
		}
		if isWithinWindow(item.CreatedAt, cutoff) {
			items = append(items, *item)
		}
	}

	return items, nil
}

func parseItem(entry *gofeed.Item, source string) *FeedbackItem {
	entryURL := entry.Link
	if entryURL == "" {
		entryURL = entry.GUID
	}
	if entryURL == "" {
		return nil
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return nil
	}

	var createdAt string
	if entry.PublishedParsed != nil {
		createdAt = entry.PublishedParsed.UTC().Format(time.RFC3339)
	} else if entry.UpdatedParsed != nil {
		createdAt = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	var content string
	if entry.Content != "" {
		content = stripHTML(entry.Content)
	} else if entry.Description != "" {
		content = stripHTML(entry.Description)
	}

	var customerName string
	if entry.Author != nil {
		customerName = entry.Author.Name
	}

	return &FeedbackItem{
		Source:       source,
		SourceID:     entryURL,
		Title:        title,
		Content:      content,
		Category:     "review",
		URL:          entryURL,
		NeedsFetch:   len(content) < excerptThreshold,
		CustomerName: customerName,
		CustomerTier: "free", // public reviewers have no account tier
		CreatedAt:    createdAt,
	}
}

func isWithinWindow(createdAt string, cutoff time.Time) bool {
	if createdAt == "" {
		return true // benefit of the doubt
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return true
	}
	return !t.Before(cutoff)
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "rss.", "feeds.", "reviews."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
