package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/messenger"
)

// Notifier sends messages via Telegram
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
}

// NewNotifier creates a new Telegram notifier
func NewNotifier(botToken string, chatID int64, enabled bool) (*Notifier, error) {
	if !enabled || botToken == "" {
		return &Notifier{enabled: false}, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &Notifier{
		bot:     bot,
		chatID:  chatID,
		enabled: true,
	}, nil
}

// NewNotifierFromController creates a notifier using an existing BotController
func NewNotifierFromController(controller *BotController) *Notifier {
	if controller == nil || !controller.IsEnabled() {
		return &Notifier{enabled: false}
	}
	return &Notifier{
		bot:     controller.GetBot(),
		chatID:  controller.GetChatID(),
		enabled: true,
	}
}

// NotifyInquiry forwards a contact inquiry to the agent chat
func (n *Notifier) NotifyInquiry(ctx context.Context, listing *domain.Listing, q *domain.Inquiry) error {
	if !n.enabled {
		return nil
	}
	return n.send(FormatInquiry(listing, q))
}

// NotifyError sends an error notification to the admin
func (n *Notifier) NotifyError(ctx context.Context, errMsg string) error {
	if !n.enabled {
		return nil
	}
	return n.send(fmt.Sprintf("⚠️ <b>Service error</b>\n\n%s", escapeHTML(errMsg)))
}

// NotifyStartup sends a notification that the service has started
func (n *Notifier) NotifyStartup(ctx context.Context, listingCount int) error {
	if !n.enabled {
		return nil
	}
	return n.send(fmt.Sprintf("🚀 <b>Estates started</b>\n\nListings loaded: %d", listingCount))
}

// IsEnabled returns whether the notifier is enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	_, err := n.bot.Send(msg)
	return err
}

// FormatInquiry renders an inquiry together with the listing it is about
func FormatInquiry(l *domain.Listing, q *domain.Inquiry) string {
	var sb strings.Builder

	sb.WriteString("📨 <b>New inquiry</b>\n\n")
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", escapeHTML(l.Title)))

	// Location
	switch {
	case l.Address.District != "" && l.Address.City != "":
		sb.WriteString(fmt.Sprintf("📍 %s, %s\n", escapeHTML(l.Address.District), escapeHTML(l.Address.City)))
	case l.Address.City != "":
		sb.WriteString(fmt.Sprintf("📍 %s\n", escapeHTML(l.Address.City)))
	}
	if l.Price > 0 {
		sb.WriteString(fmt.Sprintf("💰 %s | %s\n", messenger.FormatPrice(l.Price, l.Currency), l.Status.Label()))
	}
	if l.Agent.Name != "" {
		sb.WriteString(fmt.Sprintf("👤 Agent: %s\n", escapeHTML(l.Agent.Name)))
	}

	sb.WriteString("\n<b>From:</b> ")
	sb.WriteString(escapeHTML(q.Name))
	sb.WriteString(fmt.Sprintf("\n✉️ %s\n📞 %s\n", escapeHTML(q.Email), escapeHTML(q.Phone)))
	sb.WriteString(fmt.Sprintf("\n<pre>%s</pre>", escapeHTML(q.Message)))

	return sb.String()
}

// escapeHTML escapes HTML special characters for Telegram
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
