package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/medovik-lab/honeybot-backend/pkg/config"
)

// Client implements Gateway over the Telegram Bot API with HTML parse mode.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient authorizes against the Bot API using the configured token.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return &Client{bot: bot}, nil
}

// BotAPI exposes the underlying API for the update poller in cmd/bot.
func (c *Client) BotAPI() *tgbotapi.BotAPI {
	return c.bot
}

// Send delivers a message with an optional inline keyboard.
func (c *Client) Send(ctx context.Context, chatID int64, text string, markup Markup) (MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = toInlineMarkup(markup)
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return MessageRef{}, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return MessageRef{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

// Edit replaces the text and keyboard of a previously sent message.
func (c *Client) Edit(ctx context.Context, ref MessageRef, text string, markup Markup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		inline := toInlineMarkup(markup)
		edit.ReplyMarkup = &inline
	}
	if _, err := c.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", ref.MessageID, ref.ChatID, err)
	}
	return nil
}

// Delete removes a message. Callers treat failures as non-fatal.
func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

func toInlineMarkup(markup Markup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(markup))
	for _, row := range markup {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
