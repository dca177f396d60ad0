package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// 消息通道
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
	ChannelLog      = "log"
)

// ErrNoDestination 收件人在当前通道没有可用地址
var ErrNoDestination = errors.New("recipient has no address for this channel")

// Recipient 消息接收人
type Recipient struct {
	UserID         uint
	Name           string
	Phone          string
	TelegramChatID *int64
}

// MessageSender 单条消息发送接口
type MessageSender interface {
	Channel() string
	Send(ctx context.Context, to Recipient, message string) error
}

// NewMessageSender 按配置选择消息通道，缺少凭据时退回日志通道
func NewMessageSender(cfg *config.Config) MessageSender {
	switch cfg.NotifyChannel {
	case ChannelWhatsApp:
		if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
			return NewWhatsAppService(cfg)
		}
		Logger.Warning("未配置 Twilio 凭据，消息只写入日志")
	case ChannelTelegram:
		sender, err := NewTelegramService(cfg)
		if err == nil {
			return sender
		}
		Logger.Warning("初始化 Telegram 失败，消息只写入日志: %v", err)
	}
	return LogSender{}
}

// LogSender 只记录日志的消息通道
type LogSender struct{}

// Channel 通道名称
func (LogSender) Channel() string { return ChannelLog }

// Send 记录消息
func (LogSender) Send(_ context.Context, to Recipient, message string) error {
	Logger.WithFields(map[string]interface{}{
		"user_id": to.UserID,
		"phone":   to.Phone,
	}).Info(message)
	return nil
}

// twilioMessageAPI Twilio 消息接口
type twilioMessageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsAppService 通过 Twilio 发送 WhatsApp 消息
type WhatsAppService struct {
	api  twilioMessageAPI
	from string
}

// NewWhatsAppService 创建 WhatsApp 消息服务
func NewWhatsAppService(cfg *config.Config) *WhatsAppService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &WhatsAppService{api: client.Api, from: cfg.TwilioFromNumber}
}

// Channel 通道名称
func (s *WhatsAppService) Channel() string { return ChannelWhatsApp }

// Send 发送 WhatsApp 消息到 whatsapp:<phone>
func (s *WhatsAppService) Send(ctx context.Context, to Recipient, message string) error {
	if to.Phone == "" {
		return ErrNoDestination
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(whatsAppAddress(to.Phone))
	params.SetFrom(whatsAppAddress(s.from))
	params.SetBody(message)

	return sendWithContext(ctx, func() error {
		resp, err := s.api.CreateMessage(params)
		if err != nil {
			return fmt.Errorf("发送 WhatsApp 消息失败: %w", err)
		}
		if resp != nil && resp.Sid != nil {
			Logger.Debug("WhatsApp 消息已发送: sid=%s user=%d", *resp.Sid, to.UserID)
		}
		return nil
	})
}

func whatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}

// telegramAPI Telegram Bot 发送接口
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService 通过 Telegram Bot 发送消息
type TelegramService struct {
	api telegramAPI
}

// NewTelegramService 创建 Telegram 消息服务
func NewTelegramService(cfg *config.Config) (*TelegramService, error) {
	if cfg.TelegramBotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}
	return &TelegramService{api: api}, nil
}

// Channel 通道名称
func (s *TelegramService) Channel() string { return ChannelTelegram }

// Send 发送到收件人绑定的 Telegram 会话
func (s *TelegramService) Send(ctx context.Context, to Recipient, message string) error {
	if to.TelegramChatID == nil {
		return ErrNoDestination
	}
	return sendWithContext(ctx, func() error {
		if _, err := s.api.Send(tgbotapi.NewMessage(*to.TelegramChatID, message)); err != nil {
			return fmt.Errorf("发送 Telegram 消息失败: %w", err)
		}
		return nil
	})
}

// sendWithContext 在 ctx 超时或取消时提前返回；SDK 调用不接收 ctx，超时后的调用在后台结束
func sendWithContext(ctx context.Context, send func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- send()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("消息发送超时: %w", ctx.Err())
	}
}
