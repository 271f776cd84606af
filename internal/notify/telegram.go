package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
)

// TelegramNotifier 通过 Telegram 机器人推送运维告警
type TelegramNotifier struct {
	bot      *bot.Bot
	chatID   string
	minLevel string
}

// NewTelegramNotifier 创建 Telegram 通知器；opts 可追加 bot.WithServerURL 等选项
func NewTelegramNotifier(token, chatID, minLevel string, opts ...bot.Option) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("telegram notifier requires bot token and chat id")
	}
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	if minLevel == "" {
		minLevel = "warn"
	}
	return &TelegramNotifier{bot: b, chatID: chatID, minLevel: minLevel}, nil
}

// Notify 仅推送达到最低级别的事件
func (t *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	if levelRank(event.Level) < levelRank(t.minLevel) {
		return nil
	}
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   formatTelegramText(event),
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatTelegramText(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n%s", strings.ToUpper(event.Level), event.Type, event.Message)
	if event.Key != "" {
		fmt.Fprintf(&b, "\nkey: %s", event.Key)
	}
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, event.Fields[k])
	}
	return b.String()
}
