package jwt

import "time"

// Config holds token settings loaded from the environment.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"gymcrm"`
	Audience   string        `env:"JWT_AUDIENCE"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"12h"`
	Leeway     time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}
