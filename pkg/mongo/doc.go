// Package mongo connects to MongoDB with retries and exposes a health probe.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	probe := mongo.Healthcheck(db.Client())
//
// Connection failures wrap ErrFailedToConnectToMongo together with the
// last driver error.
package mongo
