package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/config"
)

// Sender 通过 Telegram Bot API 向员工发送文本消息
type Sender struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewSender 创建发送器；BotToken 为空时返回 (nil, nil)，调用方据此降级
func NewSender(cfg *config.TelegramConfig, logger *zap.Logger) (*Sender, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}

	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if cfg.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, cfg.APIEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(cfg.BotToken)
	}
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
	}

	logger.Info("Telegram Bot 已连接", zap.String("bot", bot.Self.UserName))
	return &Sender{bot: bot, logger: logger}, nil
}

// Send 发送纯文本消息
// Bot API 客户端不支持 context，这里仅在发送前检查是否已取消
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("发送 Telegram 消息失败: %w", err)
	}
	return nil
}
