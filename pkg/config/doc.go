// Package config loads env-tagged configuration structs.
//
// Variables come from the process environment after optional dotenv files are
// applied (".env" by default, see SetEnvFiles). Parsing is done by
// github.com/caarlos0/env/v11, so structs use the usual tags:
//
//	type Config struct {
//		ConnURL string        `env:"PG_CONN_URL,required"`
//		Timeout time.Duration `env:"PG_TIMEOUT" envDefault:"5s"`
//	}
//
// Results are cached per type, so packages may call Load for their own Config
// without coordinating. Structs implementing Validator are checked once after
// parsing.
package config
