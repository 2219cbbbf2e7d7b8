// Package redis connects to Redis with go-redis and exposes a health probe.
//
// Config fields are read from REDIS_* environment variables:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err // wraps ErrRedisNotReady
//	}
//	defer client.Close()
//
// The attempt log's Redis stream writer (pkg/attemptlog) takes the returned
// client.
package redis
