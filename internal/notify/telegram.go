// Package notify sends analysis digests to Telegram.
package notify

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cbruckner/feedbacklens/internal/config"
	"github.com/cbruckner/feedbacklens/internal/database"
)

// Telegram caps messages at 4096 characters.
const maxMessageLen = 4000

// Notifier sends period digests to a Telegram chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates a Notifier from the telegram config section.
// Returns nil (no error) when telegram is disabled or not configured.
func NewNotifier(cfg config.Telegram) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	token := os.Getenv(cfg.BotTokenEnv)
	chatStr := os.Getenv(cfg.ChatIDEnv)
	if token == "" || chatStr == "" {
		return nil, nil
	}

	chatID, err := strconv.ParseInt(chatStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID in %s: %w", cfg.ChatIDEnv, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	return &Notifier{bot: bot, chatID: chatID}, nil
}

// SendDigest sends the digest for a stored period summary.
func (n *Notifier) SendDigest(summary *database.Summary) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatDigest(summary))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram digest: %w", err)
	}
	return nil
}

// FormatDigest renders a summary as a Telegram HTML message.
func FormatDigest(summary *database.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Feedback digest: %s</b>\n\n", escapeHTML(database.FormatPeriodDisplay(summary.PeriodID)))
	fmt.Fprintf(&b, "Feedback analyzed: %d\n", summary.FeedbackCount)
	fmt.Fprintf(&b, "Negative: %d\n", summary.NegativeCount)
	fmt.Fprintf(&b, "Critical issues: %d\n", summary.CriticalCount)

	if insights := extractInsights(summary.OverviewMarkdown); len(insights) > 0 {
		b.WriteString("\n<b>Key insights</b>\n")
		for _, line := range insights {
			fmt.Fprintf(&b, "• %s\n", escapeHTML(line))
		}
	}

	text := b.String()
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen] + "…"
	}
	return text
}

// extractInsights pulls the bullet list under the "Key Insights" heading
// out of the summary markdown.
func extractInsights(markdown string) []string {
	var insights []string
	inSection := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			inSection = strings.Contains(strings.ToLower(trimmed), "key insights")
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			insights = append(insights, strings.TrimSpace(trimmed[2:]))
		}
	}
	return insights
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
