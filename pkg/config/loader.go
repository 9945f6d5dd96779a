package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by configuration structs that need cross-field
// checks after environment parsing.
type Validator interface {
	Validate() error
}

// Option customises a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix  string
	noCache bool
}

// WithPrefix parses variables as PREFIX + name. Prefixed loads are cached
// separately from unprefixed ones.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithoutCache forces a fresh parse and does not store the result.
func WithoutCache() Option {
	return func(o *loadOptions) { o.noCache = true }
}

type configCache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	globalCache = &configCache{values: make(map[string]any)}

	envFilesOnce sync.Once
	envFiles     = []string{".env"}
)

// SetEnvFiles overrides the dotenv files read before the first Load.
// Missing files are ignored. Calls after the first Load have no effect.
func SetEnvFiles(files ...string) {
	envFiles = files
}

// Load parses environment variables into v. Each configuration type (and
// prefix) is parsed once per process; later calls receive the cached copy.
// If *T implements Validator its Validate method runs before caching.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	envFilesOnce.Do(func() {
		for _, f := range envFiles {
			_ = godotenv.Load(f)
		}
	})

	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	key := o.prefix + typeName[T]()

	if o.noCache {
		return parse(v, o)
	}

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok {
		typed, ok := cached.(T)
		if !ok {
			return ErrInvalidConfigType
		}
		*v = typed
		return nil
	}
	if err := parse(v, o); err != nil {
		return err
	}
	globalCache.values[key] = *v
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func parse[T any](v *T, o loadOptions) error {
	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.PkgPath() + "." + t.String()
}
