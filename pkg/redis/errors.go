package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrCacheMiss                    = errors.New("redis cache miss")
	ErrCacheEncode                  = errors.New("redis cache: failed to encode value")
	ErrCacheDecode                  = errors.New("redis cache: failed to decode value")
)
