package channel

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"opencrew/internal/config"
	"opencrew/internal/security"
)

// telegramChunkSize stays under the Bot API's 4096-char message limit.
const telegramChunkSize = 4000

// Telegram bridges the crew to the Telegram Bot API.
type Telegram struct {
	mu        sync.Mutex
	token     string
	allowlist *security.UserAllowlist
	bot       *tele.Bot
	handler   func(InboundMessage)
	running   bool
}

// NewTelegram creates a Telegram channel from config.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		token:     cfg.Token,
		allowlist: security.NewUserAllowlist(cfg.AllowedIDs),
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  t.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}

	bot.Handle(tele.OnText, func(c tele.Context) error {
		sender := c.Sender()
		if !t.allowlist.IsAllowed(sender.ID) {
			log.Warn().
				Int64("user_id", sender.ID).
				Str("username", sender.Username).
				Msg("unauthorized telegram user ignored")
			return nil
		}

		t.mu.Lock()
		handler := t.handler
		t.mu.Unlock()

		if handler != nil {
			handler(InboundMessage{
				ChannelName: "telegram",
				SenderID:    strconv.FormatInt(sender.ID, 10),
				SenderName:  sender.FirstName + " " + sender.LastName,
				ChatID:      strconv.FormatInt(c.Chat().ID, 10),
				Text:        c.Text(),
				Timestamp:   time.Now(),
			})
		}
		return nil
	})

	t.bot = bot
	t.running = true

	go bot.Start()
	go func() {
		<-ctx.Done()
		bot.Stop()
	}()

	return nil
}

func (t *Telegram) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		t.bot.Stop()
	}
	t.running = false
	return nil
}

func (t *Telegram) Send(_ context.Context, msg OutboundMessage) error {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not started")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}
	recipient := &tele.Chat{ID: chatID}

	for _, chunk := range splitMessage(msg.Text, telegramChunkSize) {
		if _, err := bot.Send(recipient, chunk); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (t *Telegram) OnMessage(handler func(InboundMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *Telegram) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// splitMessage breaks text into chunks no longer than size bytes,
// preferring to cut at a newline.
func splitMessage(text string, size int) []string {
	var chunks []string
	for len(text) > size {
		cut := size
		for i := size; i > size/2; i-- {
			if text[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
