package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo after retries")
	ErrHealthcheckFailed      = errors.New("mongo ping failed")
)
