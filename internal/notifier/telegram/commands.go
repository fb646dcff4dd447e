package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotController handles Telegram commands
type BotController struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool

	// Callbacks
	onStatusRequest func() string
	onStatsRequest  func() string
	onReloadRequest func(ctx context.Context) string
}

// NewBotController creates a new bot controller with command handling
func NewBotController(botToken string, chatID int64, enabled bool) (*BotController, error) {
	if !enabled || botToken == "" {
		return &BotController{enabled: false}, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &BotController{
		bot:     bot,
		chatID:  chatID,
		enabled: true,
	}, nil
}

// SetCallbacks sets the callback functions behind /status, /stats and /reload
func (c *BotController) SetCallbacks(onStatus, onStats func() string, onReload func(ctx context.Context) string) {
	c.onStatusRequest = onStatus
	c.onStatsRequest = onStats
	c.onReloadRequest = onReload
}

// StartCommandListener starts listening for Telegram commands
func (c *BotController) StartCommandListener(ctx context.Context) {
	if !c.enabled {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.bot.GetUpdatesChan(u)

	go func() {
		defer c.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update := <-updates:
				if update.Message == nil || !update.Message.IsCommand() {
					continue
				}

				// Only respond to authorized chat
				if update.Message.Chat.ID != c.chatID {
					continue
				}

				reply := tgbotapi.NewMessage(c.chatID, c.Respond(ctx, update.Message.Command()))
				reply.ParseMode = tgbotapi.ModeHTML
				c.bot.Send(reply)
			}
		}
	}()
}

// Respond returns the HTML reply for a command name
func (c *BotController) Respond(ctx context.Context, command string) string {
	switch command {
	case "start", "help":
		return helpMessage
	case "status":
		if c.onStatusRequest != nil {
			return "🏠 <b>Estates status</b>\n\n" + c.onStatusRequest()
		}
		return "Status not available."
	case "stats":
		if c.onStatsRequest != nil {
			return c.onStatsRequest()
		}
		return "Statistics not available."
	case "reload":
		if c.onReloadRequest != nil {
			return c.onReloadRequest(ctx)
		}
		return "Reload not available."
	default:
		return "Unknown command. Use /help for an overview."
	}
}

const helpMessage = `🏠 <b>Estates commands</b>

/status - Current catalog state
/stats - Inquiry and fetch statistics
/reload - Re-fetch the listing catalog
/help - This help`

// GetBot returns the underlying bot API for notifications
func (c *BotController) GetBot() *tgbotapi.BotAPI {
	return c.bot
}

// GetChatID returns the configured chat ID
func (c *BotController) GetChatID() int64 {
	return c.chatID
}

// IsEnabled returns whether the controller is enabled
func (c *BotController) IsEnabled() bool {
	return c.enabled
}
