package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is read from the environment by cmd/gymcrm.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"gymcrm"`
	// Level and Format override the environment preset when set.
	Level  string `env:"LOG_LEVEL"`
	Format Format `env:"LOG_FORMAT"`
	// RedactKeys lists attribute keys whose string values are masked.
	RedactKeys []string `env:"LOG_REDACT_KEYS" envSeparator:"," envDefault:"phone,phone_number,email,to"`
}

type Option func(*settings)

type settings struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	redact     []string
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat panics on anything but FormatJSON and FormatText.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
	}
	return func(s *settings) { s.format = f }
}

func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithRedactedKeys masks phone numbers and emails logged under these keys.
// An empty call disables redaction.
func WithRedactedKeys(keys ...string) Option {
	return func(s *settings) { s.redact = keys }
}

func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) { s.extractors = append(s.extractors, extractors...) }
}

// WithEnvironment picks debug text output for development and info JSON
// output for staging and production, and tags records with service and env.
func WithEnvironment(env, service string) Option {
	return func(s *settings) {
		switch strings.ToLower(env) {
		case EnvProduction, "prod":
			env = EnvProduction
			s.level, s.format = slog.LevelInfo, FormatJSON
		case EnvStaging, "stage":
			env = EnvStaging
			s.level, s.format = slog.LevelInfo, FormatJSON
		default:
			env = EnvDevelopment
			s.level, s.format = slog.LevelDebug, FormatText
		}
		if service != "" {
			s.attrs = append(s.attrs, slog.String("service", service))
		}
		s.attrs = append(s.attrs, slog.String("env", env))
	}
}

// New builds a logger. Without options it writes info level JSON to stdout
// and masks DefaultRedactedKeys.
func New(opts ...Option) *slog.Logger {
	s := &settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
		redact: DefaultRedactedKeys,
	}
	for _, opt := range opts {
		opt(s)
	}

	ho := &slog.HandlerOptions{Level: s.level, ReplaceAttr: redactor(s.redact)}
	var h slog.Handler = slog.NewJSONHandler(s.output, ho)
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, ho)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return slog.New(NewContextHandler(h, s.extractors...))
}

// NewFromConfig applies the environment preset first, then explicit Level,
// Format and RedactKeys, then opts.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	all := []Option{WithEnvironment(cfg.Env, cfg.Service), WithRedactedKeys(cfg.RedactKeys...)}
	if cfg.Level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err == nil {
			all = append(all, WithLevel(lvl))
		}
	}
	if cfg.Format != "" {
		all = append(all, WithFormat(cfg.Format))
	}
	return New(append(all, opts...)...)
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
