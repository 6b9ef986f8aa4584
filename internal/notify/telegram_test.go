package notify

import (
	"strings"
	"testing"

	"github.com/cbruckner/feedbacklens/internal/config"
	"github.com/cbruckner/feedbacklens/internal/database"
)

func TestNewNotifierDisabled(t *testing.T) {
	n, err := NewNotifier(config.Telegram{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Error("expected nil notifier when disabled")
	}
}

func TestNewNotifierMissingEnv(t *testing.T) {
	t.Setenv("TEST_TG_TOKEN", "")
	t.Setenv("TEST_TG_CHAT", "")
	n, err := NewNotifier(config.Telegram{
		Enabled:     true,
		BotTokenEnv: "TEST_TG_TOKEN",
		ChatIDEnv:   "TEST_TG_CHAT",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Error("expected nil notifier when env vars are empty")
	}
}

func TestNewNotifierBadChatID(t *testing.T) {
	t.Setenv("TEST_TG_TOKEN", "123:abc")
	t.Setenv("TEST_TG_CHAT", "not-a-number")
	_, err := NewNotifier(config.Telegram{
		Enabled:     true,
		BotTokenEnv: "TEST_TG_TOKEN",
		ChatIDEnv:   "TEST_TG_CHAT",
	})
	if err == nil {
		t.Error("expected error for non-numeric chat ID")
	}
}

func TestFormatDigest(t *testing.T) {
	summary := &database.Summary{
		PeriodID:      "2026-02-01..2026-02-07",
		FeedbackCount: 42,
		NegativeCount: 12,
		CriticalCount: 3,
		OverviewMarkdown: "# Feedback Summary\n\n## Overview\n\n- stuff\n\n" +
			"## Key Insights\n\n- Billing complaints doubled this week\n- Dashboard praise from <enterprise> accounts\n\n## By Source\n\n- zendesk: 30\n",
	}

	text := FormatDigest(summary)

	if !strings.Contains(text, "Feedback analyzed: 42") {
		t.Error("expected feedback count in digest")
	}
	if !strings.Contains(text, "Critical issues: 3") {
		t.Error("expected critical count in digest")
	}
	if !strings.Contains(text, "• Billing complaints doubled this week") {
		t.Error("expected insight bullet in digest")
	}
	if !strings.Contains(text, "&lt;enterprise&gt;") {
		t.Error("expected HTML-escaped insight text")
	}
	if strings.Contains(text, "zendesk: 30") {
		t.Error("expected digest to stop at end of insights section")
	}
}

func TestFormatDigestNoInsights(t *testing.T) {
	summary := &database.Summary{
		PeriodID:         "2026-02-01..2026-02-07",
		FeedbackCount:    5,
		OverviewMarkdown: "# Feedback Summary\n\nNothing notable.\n",
	}

	text := FormatDigest(summary)
	if strings.Contains(text, "Key insights") {
		t.Error("expected no insights section for plain summary")
	}
}

func TestFormatDigestTruncation(t *testing.T) {
	long := strings.Repeat("very long insight text ", 400)
	summary := &database.Summary{
		PeriodID:         "2026-02-01..2026-02-07",
		OverviewMarkdown: "## Key Insights\n\n- " + long + "\n",
	}

	text := FormatDigest(summary)
	if len(text) > maxMessageLen+len("…") {
		t.Errorf("digest length %d exceeds limit", len(text))
	}
}

func TestExtractInsights(t *testing.T) {
	md := "## Key Insights\n\n- first\n* second\nnot a bullet\n\n## Next\n\n- ignored\n"
	got := extractInsights(md)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("unexpected insights: %v", got)
	}
}
