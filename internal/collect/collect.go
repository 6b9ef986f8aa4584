package collect

import (
	"log"
	"time"

	"github.com/cbruckner/feedbacklens/internal/config"
	"github.com/cbruckner/feedbacklens/internal/database"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewRecords int
	Duplicates int
	Sources    map[string]int
}

// Collector orchestrates feedback collection from all configured sources.
type Collector struct {
	db         *database.DB
	zendesk    *ZendeskClient
	intercom   *IntercomClient
	feedParser *FeedParser
	daysBack   int
}

// NewCollector creates a collector from the source configuration.
func NewCollector(cfg *config.Config, db *database.DB, daysBack int) *Collector {
	c := &Collector{db: db, daysBack: daysBack}

	if cfg.Sources.Zendesk.Enabled {
		z := cfg.Sources.Zendesk
		c.zendesk = NewZendeskClient(z.Subdomain, z.Email, z.APITokenEnv)
	}
	if cfg.Sources.Intercom.Enabled {
		c.intercom = NewIntercomClient(cfg.Sources.Intercom.AccessTokenEnv)
	}
	if len(cfg.Sources.ReviewFeeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.ReviewFeeds))
		for i, f := range cfg.Sources.ReviewFeeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds)
	}

	return c
}

// Collect pulls feedback from every configured source and stores the
// normalized records, recording per-source sync state.
func (c *Collector) Collect() *Result {
	r := &Result{Sources: make(map[string]int)}

	if c.zendesk != nil && c.zendesk.IsConfigured() {
		log.Println("Collecting from Zendesk...")
		c.store(r, c.zendesk.FetchTickets(c.daysBack))
		c.recordSync("zendesk")
	}

	if c.intercom != nil && c.intercom.IsConfigured() {
		log.Println("Collecting from Intercom...")
		c.store(r, c.intercom.FetchConversations(c.daysBack))
		c.recordSync("intercom")
	}

	if c.feedParser != nil {
		log.Println("Collecting from review feeds...")
		items := c.feedParser.ParseAll(c.daysBack)
		c.store(r, items)

		synced := make(map[string]bool)
		for _, item := range items {
			if !synced[item.Source] {
				synced[item.Source] = true
				c.recordSync(item.Source)
			}
		}
	}

	log.Printf("Collection complete: %d found, %d new, %d duplicates",
		r.TotalFound, r.NewRecords, r.Duplicates)
	return r
}

func (c *Collector) store(r *Result, items []FeedbackItem) {
	r.TotalFound += len(items)

	for _, item := range items {
		record := &database.Feedback{
			Source:         item.Source,
			SourceID:       item.SourceID,
			Title:          item.Title,
			Content:        item.Content,
			CustomerID:     item.CustomerID,
			ContentFetched: !item.NeedsFetch,
			CreatedAt:      item.CreatedAt,
		}
		if item.Category != "" {
			record.Category = &item.Category
		}
		if item.URL != "" {
			record.URL = &item.URL
		}
		if item.CustomerEmail != "" {
			record.CustomerEmail = &item.CustomerEmail
		}
		if item.CustomerName != "" {
			record.CustomerName = &item.CustomerName
		}
		if item.CustomerTier != "" {
			record.CustomerTier = &item.CustomerTier
		}
		if item.Severity != "" {
			record.Severity = &item.Severity
		}

		id, _ := c.db.InsertFeedback(record)
		if id > 0 {
			r.NewRecords++
			r.Sources[item.Source]++
		} else {
			r.Duplicates++
		}
	}
}

func (c *Collector) recordSync(source string) {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := c.db.UpsertSyncState(source, now, "ok"); err != nil {
		log.Printf("Failed to record sync state for %s: %v", source, err)
	}
}
