package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/authkit/pkg/attemptlog"
	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/authhttp"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/mongo"
	"github.com/dmitrymomot/authkit/pkg/mongostore"
	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/pgstore"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/secrets"
)

// storage is the selected persistence backend.
type storage struct {
	store    auth.CredentialStore
	users    authhttp.UserCreator
	attempts attemptlog.BatchWriter
	checks   map[string]httpserver.Check
	closers  []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg Config, log *slog.Logger) (*storage, error) {
	st := &storage{checks: map[string]httpserver.Check{}}

	switch cfg.StorageDriver {
	case DriverMemory:
		store := auth.NewMemoryStore()
		st.store, st.users, st.attempts = store, store, attemptlog.NewMemory()
		log.Warn("using in-memory storage, data is lost on restart")

	case DriverPostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		db := pg.SQL(pool)
		st.closers = append(st.closers, pool.Close, func() { _ = db.Close() })

		if err := pg.Migrate(ctx, db, pgstore.Migrations, pgstore.MigrationsDir, pgCfg.MigrationsTable, log); err != nil {
			st.close()
			return nil, err
		}
		store := pgstore.New(db)
		st.store, st.users, st.attempts = store, store, pgstore.NewAttemptWriter(db)
		st.checks["postgres"] = pg.Healthcheck(pool)

	case DriverMongo:
		var mCfg mongo.Config
		if err := config.Load(&mCfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, mCfg)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Disconnect(context.Background()) })

		db := client.Database(mCfg.Database)
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			st.close()
			return nil, err
		}
		st.store, st.users, st.attempts = store, store, mongostore.NewAttemptWriter(db)
		st.checks["mongo"] = mongo.Healthcheck(client)

	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, cfg.StorageDriver)
	}
	return st, nil
}

// openAttemptStream returns a Redis stream mirror of the attempt log, or
// nil when disabled.
func openAttemptStream(ctx context.Context, cfg Config, st *storage) (auth.AttemptLogger, error) {
	if !cfg.AttemptStream {
		return nil, nil
	}
	var rCfg redis.Config
	if err := config.Load(&rCfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, rCfg)
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, func() { _ = client.Close() })
	st.checks["redis"] = redis.Healthcheck(client)
	return attemptlog.NewStream(client), nil
}

func buildRegistry(cfg Config, log *slog.Logger, attempts auth.AttemptLogger) (*auth.Registry, error) {
	hmacOpts := []auth.HMACOption{auth.WithUnusedTokenLifetime(cfg.HMACUnusedLifetime)}
	if cfg.EncryptionKey != "" {
		key, err := secrets.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		cipher, err := secrets.NewCipher(key, "hmac-keys")
		if err != nil {
			return nil, err
		}
		hmacOpts = append(hmacOpts, auth.WithKeyCipher(cipher))
	} else {
		log.Warn("APP_ENCRYPTION_KEY not set, hmac secrets are stored in plain text")
	}

	authenticators := map[string]auth.Factory{
		auth.AliasPassword: auth.PasswordFactory(),
		auth.AliasHMAC:     auth.HMACFactory(hmacOpts...),
		auth.AliasAccessToken: auth.AccessTokenFactory(
			auth.WithAccessTokenIdleLifetime(cfg.AccessTokenIdle),
			auth.WithAccessTokenTTL(cfg.AccessTokenTTL),
		),
		auth.AliasJWT: auth.JWTFactory([]byte(cfg.JWTSigningKey),
			auth.WithJWTTTL(cfg.JWTTTL),
			auth.WithJWTIssuer(cfg.JWTIssuer),
		),
	}

	if cfg.MagicLinkEnabled {
		var eCfg email.Config
		if err := config.Load(&eCfg); err != nil {
			return nil, err
		}
		sender, err := email.NewSender(eCfg)
		if err != nil {
			return nil, err
		}
		if !eCfg.UsePostmark() {
			log.Warn("postmark not configured, writing emails to disk", slog.String("dir", eCfg.DevDir))
		}
		mailer, err := email.NewMagicLinkMailer(sender, cfg.MagicLinkVerifyURL, email.WithAppName(cfg.AppName))
		if err != nil {
			return nil, err
		}
		linkOpts := []auth.MagicLinkOption{
			auth.WithMagicLinkSender(mailer),
			auth.WithMagicLinkTTL(cfg.MagicLinkTTL),
		}
		if cfg.MagicLinkSingle {
			linkOpts = append(linkOpts, auth.WithSingleOutstandingLink())
		}
		authenticators[auth.AliasMagicLink] = auth.MagicLinkFactory(linkOpts...)
	}

	return auth.NewRegistry(auth.RegistryConfig{
		Default:        auth.AliasPassword,
		Authenticators: authenticators,
		Attempts:       attempts,
		Logger:         log.With(logger.Component("auth")),
	})
}
