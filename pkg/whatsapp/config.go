package whatsapp

import "time"

// Config holds Twilio credentials. Without an account SID messages are only
// logged, which keeps development and CI off the network.
type Config struct {
	AccountSID  string        `env:"TWILIO_ACCOUNT_SID"`
	AuthToken   string        `env:"TWILIO_AUTH_TOKEN"`
	FromNumber  string        `env:"TWILIO_WHATSAPP_NUMBER" envDefault:"whatsapp:+14155238886"`
	RatePerSec  float64       `env:"WHATSAPP_RATE_PER_SEC" envDefault:"1"`
	RateBurst   int           `env:"WHATSAPP_RATE_BURST" envDefault:"5"`
	SendTimeout time.Duration `env:"WHATSAPP_SEND_TIMEOUT" envDefault:"15s"`
}

func (c Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}
