package services

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeTwilio struct {
	params []*openapi.CreateMessageParams
	err    error
	block  chan struct{}
}

func (f *fakeTwilio) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if f.block != nil {
		<-f.block
		return nil, errors.New("released")
	}
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

type fakeTelegram struct {
	sent  []tgbotapi.Chattable
	block chan struct{}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
		return tgbotapi.Message{}, errors.New("released")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestWhatsAppServiceSend(t *testing.T) {
	api := &fakeTwilio{}
	svc := &WhatsAppService{api: api, from: "+14155238886"}

	err := svc.Send(context.Background(), Recipient{UserID: 1, Phone: "+628123456789"}, DonorEmergencyMessage)
	require.NoError(t, err)
	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+628123456789", *api.params[0].To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	assert.Equal(t, DonorEmergencyMessage, *api.params[0].Body)

	assert.ErrorIs(t, svc.Send(context.Background(), Recipient{UserID: 2}, "hi"), ErrNoDestination)

	api.err = errors.New("twilio down")
	assert.Error(t, svc.Send(context.Background(), Recipient{UserID: 3, Phone: "+62811"}, "hi"))
}

func TestTelegramServiceSend(t *testing.T) {
	api := &fakeTelegram{}
	svc := &TelegramService{api: api}

	require.NoError(t, svc.Send(context.Background(), Recipient{UserID: 1, TelegramChatID: int64Ptr(99)}, "hello"))
	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)

	assert.ErrorIs(t, svc.Send(context.Background(), Recipient{UserID: 2, Phone: "+62"}, "hello"), ErrNoDestination)
}

func TestSendersHonourContextDeadline(t *testing.T) {
	twilioAPI := &fakeTwilio{block: make(chan struct{})}
	telegramAPI := &fakeTelegram{block: make(chan struct{})}
	defer close(twilioAPI.block)
	defer close(telegramAPI.block)

	senders := []struct {
		sender MessageSender
		to     Recipient
	}{
		{&WhatsAppService{api: twilioAPI, from: "+14155238886"}, Recipient{UserID: 1, Phone: "+62811"}},
		{&TelegramService{api: telegramAPI}, Recipient{UserID: 1, TelegramChatID: int64Ptr(5)}},
	}

	for _, tt := range senders {
		t.Run(tt.sender.Channel(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			start := time.Now()
			err := tt.sender.Send(ctx, tt.to, "hello")
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestSendersSkipCancelledContext(t *testing.T) {
	api := &fakeTwilio{}
	svc := &WhatsAppService{api: api, from: "+14155238886"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, svc.Send(ctx, Recipient{UserID: 1, Phone: "+62811"}, "hello"), context.Canceled)
	assert.Empty(t, api.params)
}

func TestNewMessageSenderFallsBackToLog(t *testing.T) {
	cfg := &config.Config{NotifyChannel: ChannelWhatsApp}
	assert.Equal(t, ChannelLog, NewMessageSender(cfg).Channel())

	cfg = &config.Config{NotifyChannel: ChannelTelegram}
	assert.Equal(t, ChannelLog, NewMessageSender(cfg).Channel())

	cfg = &config.Config{NotifyChannel: ChannelWhatsApp, TwilioAccountSID: "AC1", TwilioAuthToken: "tok"}
	assert.Equal(t, ChannelWhatsApp, NewMessageSender(cfg).Channel())
}
