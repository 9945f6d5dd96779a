package whatsapp

import "errors"

var (
	ErrInvalidConfig = errors.New("whatsapp: invalid config")
	ErrInvalidPhone  = errors.New("whatsapp: invalid phone number")
	ErrEmptyBody     = errors.New("whatsapp: empty message body")
	ErrSendFailed    = errors.New("whatsapp: failed to send message")
)
