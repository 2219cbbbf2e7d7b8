package redis

import "errors"

// Connection errors. Wrapped together with the underlying client error.
var (
	ErrEmptyConnectionURL           = errors.New("redis connection URL is empty")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis not ready after retries")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
