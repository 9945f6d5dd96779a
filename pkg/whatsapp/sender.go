package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// Message is a WhatsApp message to a single member.
type Message struct {
	To       string
	Body     string
	MediaURL string
}

// Sender delivers WhatsApp messages and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// messageCreator is the slice of the Twilio REST client the sender uses.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type twilioSender struct {
	api     messageCreator
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New returns a Twilio backed sender when cfg carries credentials and a
// LogSender otherwise.
func New(cfg Config, log *slog.Logger) Sender {
	if log == nil {
		log = logger.Discard()
	}
	if !cfg.Enabled() {
		return NewLogSender(log)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, log)
}

func newTwilioSender(api messageCreator, cfg Config, log *slog.Logger) *twilioSender {
	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.RateBurst, 1)

	from := cfg.FromNumber
	if !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}

	return &twilioSender{
		api:     api,
		from:    from,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.With(logger.Component("whatsapp")),
	}
}

// Send normalises the recipient, waits for the outbound rate limiter and
// calls Twilio. Errors wrap ErrSendFailed so the queue retries them.
func (s *twilioSender) Send(ctx context.Context, msg Message) (string, error) {
	to, err := prepare(msg)
	if err != nil {
		return "", err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo("whatsapp:" + to)
	params.SetBody(msg.Body)
	if msg.MediaURL != "" {
		params.SetMediaUrl([]string{msg.MediaURL})
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.InfoContext(ctx, "whatsapp message sent", logger.Phone("to", to), slog.String("sid", sid))
	return sid, nil
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{logger: log.With(logger.Component("whatsapp"))}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	to, err := prepare(msg)
	if err != nil {
		return "", err
	}
	preview := msg.Body
	if r := []rune(preview); len(r) > 60 {
		preview = string(r[:60]) + "..."
	}
	s.logger.InfoContext(ctx, "whatsapp delivery disabled, message logged",
		logger.Phone("to", to),
		slog.String("preview", preview),
		slog.String("media_url", msg.MediaURL))
	return fmt.Sprintf("log-%s", to), nil
}

func prepare(msg Message) (string, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return "", ErrEmptyBody
	}
	return NormalizeIndianPhone(msg.To)
}
