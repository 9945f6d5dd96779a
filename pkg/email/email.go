package email

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a transactional email. At least one of TextBody and HTMLBody
// must be set.
type Message struct {
	To          string       `json:"to" validate:"required,email"`
	Subject     string       `json:"subject" validate:"required,max=998"`
	TextBody    string       `json:"text_body,omitempty" validate:"required_without=HTMLBody"`
	HTMLBody    string       `json:"html_body,omitempty"`
	Tag         string       `json:"tag,omitempty" validate:"max=1000"`
	Attachments []Attachment `json:"attachments,omitempty" validate:"dive"`
}

type Attachment struct {
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Data        []byte `json:"-" validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks addressing and required fields.
func (m Message) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(m); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}

// New returns a Postmark sender when cfg enables it and a DevSender otherwise.
func New(cfg Config) (Sender, error) {
	if !cfg.Enabled() {
		return NewDevSender(cfg.DevOutputDir), nil
	}
	return NewPostmarkSender(cfg)
}
