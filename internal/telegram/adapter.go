// Package telegram bridges Telegram chats to the generation gateway.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram to the gateway. A text message (or a photo with
// a caption) becomes a generation request; the run's outcome is sent back
// to the chat, with retry progress surfaced along the way.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	gateway  *gateway.Gateway
	events   types.EventStore
	sessions types.SessionStore
	stories  types.StoryStore
	backoff  *gateway.Backoff
}

// New creates a Telegram adapter.
func New(token string, gw *gateway.Gateway, events types.EventStore, sessions types.SessionStore, stories types.StoryStore) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:      bot,
		gateway:  gw,
		events:   events,
		sessions: sessions,
		stories:  stories,
		backoff:  gateway.DefaultBackoff(),
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	prompt := msg.Text
	var imageURLs []string
	if len(msg.Photo) > 0 {
		// The last photo size is the largest.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		if url, err := a.bot.GetFileDirectURL(fileID); err == nil {
			imageURLs = append(imageURLs, url)
		} else {
			slog.Warn("resolve photo url", "error", err)
		}
		if msg.Caption != "" {
			prompt = msg.Caption
		}
	}
	if prompt == "" {
		return
	}

	chatID := msg.Chat.ID
	req := &types.GenerateRequest{
		Source:     "telegram",
		SessionKey: buildSessionKey(msg.From.ID, msg.Chat.ID),
		UserID:     strconv.FormatInt(msg.From.ID, 10),
		Prompt:     prompt,
		ImageURLs:  imageURLs,
	}

	_, err := a.gateway.HandleInbound(ctx, req,
		gateway.WithOnEvent(func(ev progress.Event) {
			if ev.Kind == progress.KindRetry {
				a.sendResponse(chatID, fmt.Sprintf("Attempt %d of %d: %s",
					ev.Retry.Attempt, ev.Retry.MaxAttempts, ev.Retry.Reason))
			}
		}),
		gateway.WithOnComplete(func(response string) {
			a.sendResponse(chatID, response)
		}))
	if err != nil {
		slog.Error("handle inbound", "error", err)
		a.sendResponse(chatID, "Sorry, I encountered an error processing your request.")
	}
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.sendResponse(chatID, "Hello! I'm StoryForge. Describe a screen and I'll generate a story document for it.")

	case "status":
		key := buildSessionKey(msg.From.ID, msg.Chat.ID)
		sid, err := a.sessions.ResolveOrCreate(ctx, key, "default")
		if err != nil {
			a.sendResponse(chatID, "Error fetching status.")
			return
		}
		count, err := a.events.Count(ctx, sid)
		if err != nil {
			a.sendResponse(chatID, "Error fetching status.")
			return
		}
		a.sendResponse(chatID, fmt.Sprintf("Session: %s\nEvents: %d", sid, count))

	case "stories":
		key := buildSessionKey(msg.From.ID, msg.Chat.ID)
		sid, err := a.sessions.ResolveOrCreate(ctx, key, "default")
		if err != nil {
			a.sendResponse(chatID, "Error listing stories.")
			return
		}
		metas, err := a.stories.List(ctx, sid)
		if err != nil || len(metas) == 0 {
			a.sendResponse(chatID, "No stories yet. Describe a screen to create one.")
			return
		}
		var sb strings.Builder
		for _, m := range metas {
			fmt.Fprintf(&sb, "- %s (%s)\n", m.Title, m.FileName)
		}
		a.sendResponse(chatID, sb.String())

	default:
		a.sendResponse(chatID, "Unknown command. Available: /start, /status, /stories")
	}
}

// Deliver implements the delivery registry handler for telegram session
// keys (telegram:<userID>:<chatID>). Scheduled preset results arrive here.
func (a *Adapter) Deliver(sessionKey, message string) error {
	parts := strings.Split(sessionKey, ":")
	if len(parts) != 3 {
		return fmt.Errorf("malformed telegram session key: %s", sessionKey)
	}
	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id from %s: %w", sessionKey, err)
	}
	a.sendResponse(chatID, message)
	return nil
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		err := a.backoff.Execute(func() error {
			_, err := a.bot.Send(msg)
			return err
		})
		if err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				slog.Error("send message", "error", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

func buildSessionKey(userID, chatID int64) types.SessionKey {
	return types.NewSessionKey("telegram",
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(chatID, 10),
	)
}
