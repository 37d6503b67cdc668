package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"viewergate/internal/account"
	accountstore "viewergate/internal/account/store"
	"viewergate/internal/account/token"
	"viewergate/internal/biometric"
	"viewergate/internal/biometric/runtime"
	"viewergate/internal/capture"
	catalogmodels "viewergate/internal/catalog/models"
	catalogservice "viewergate/internal/catalog/service"
	catalogstore "viewergate/internal/catalog/store"
	"viewergate/internal/platform/config"
	"viewergate/internal/platform/metrics"
	"viewergate/internal/platform/postgres"
	"viewergate/internal/platform/redis"
	"viewergate/internal/ratelimit"
	"viewergate/internal/ratelimit/store/bucket"
	profilecache "viewergate/internal/profile/cache"
	profileservice "viewergate/internal/profile/service"
	profilestore "viewergate/internal/profile/store"
	"viewergate/internal/registration"
	httptransport "viewergate/internal/transport/http"
	"viewergate/internal/visibility"
	"viewergate/pkg/platform/audit"
	"viewergate/pkg/platform/audit/publisher"
	kafkasink "viewergate/pkg/platform/audit/publishers/kafka"
	auditmemory "viewergate/pkg/platform/audit/store/memory"
	auditpostgres "viewergate/pkg/platform/audit/store/postgres"
	"viewergate/pkg/platform/circuit"
	"viewergate/pkg/platform/middleware/auth"
	"viewergate/pkg/platform/middleware/request"
)

type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	log.Info("resources released")
}

func (a *app) onClose(f func()) { a.closers = append(a.closers, f) }

// build opens infrastructure and assembles services. Absent Postgres, Redis or
// Kafka settings select in-memory implementations.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	m := metrics.New()
	health := map[string]httptransport.HealthCheck{}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.onClose(func() { _ = db.Close() })
		if err := db.Migrate(ctx); err != nil {
			a.close(log)
			return nil, err
		}
		health["postgres"] = db.Health
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close(log)
		return nil, err
	}
	if rdb != nil {
		a.onClose(func() { _ = rdb.Close() })
		health["redis"] = rdb.Health
	}

	auditPublisher, err := buildAudit(ctx, cfg, log, db, health, a)
	if err != nil {
		a.close(log)
		return nil, err
	}

	// Accounts
	accounts, err := account.New(accountstore.NewInMemory(),
		account.WithLogger(log),
		account.WithMinPasswordLength(cfg.Account.MinPasswordLength),
		account.WithHashCost(bcrypt.DefaultCost),
	)
	if err != nil {
		a.close(log)
		return nil, err
	}
	tokens := token.NewService(cfg.Server.JWTSigningKey, "viewergate", cfg.Server.SessionTTL)
	var revocations revocationList = token.NewMemoryRevocations()
	if rdb != nil {
		revocations = token.NewRedisRevocations(rdb.Client)
	}

	// Profiles
	var (
		profileRepo  profileservice.Repository = profilestore.NewInMemory()
		profileCache profileservice.Cache      = profilecache.NewInMemory()
	)
	if db != nil {
		profileRepo = profilestore.NewPostgres(db.DB)
	}
	if rdb != nil {
		profileCache = profilecache.NewRedis(rdb.Client, cfg.Redis.ProfileTTL)
	}
	profiles, err := profileservice.New(profileRepo, profileCache,
		profileservice.WithLogger(log),
		profileservice.WithMetrics(m),
		profileservice.WithAuditPublisher(auditPublisher),
		profileservice.WithPasswordChanger(accounts),
		profileservice.WithDeletionGracePeriod(cfg.Account.DeletionGracePeriod),
		profileservice.WithMinPasswordLength(cfg.Account.MinPasswordLength),
	)
	if err != nil {
		a.close(log)
		return nil, err
	}

	// Capture
	registry, err := capture.NewRegistry(buildClassifier(cfg, log, m),
		capture.WithThreshold(cfg.Capture.AcceptanceThreshold),
		capture.WithLogger(log),
		capture.WithMetrics(m),
	)
	if err != nil {
		a.close(log)
		return nil, err
	}
	a.onClose(registry.Close)

	registrar, err := registration.New(accounts, profiles, registry,
		registration.WithLogger(log),
		registration.WithAuditPublisher(auditPublisher),
		registration.WithMinPasswordLength(cfg.Account.MinPasswordLength),
	)
	if err != nil {
		a.close(log)
		return nil, err
	}

	// Catalog
	catalog, err := buildCatalog(ctx, cfg, log, m, db, profiles)
	if err != nil {
		a.close(log)
		return nil, err
	}

	// Throttling
	var throttleStore ratelimit.Store = bucket.NewInMemoryBucketStore()
	if rdb != nil {
		throttleStore = bucket.NewRedisBucketStore(rdb.Client)
	}
	proxies, err := request.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		a.close(log)
		return nil, fmt.Errorf("server.trustedproxies: %w", err)
	}
	authThrottle := ratelimit.New(throttleStore, log,
		ratelimit.WithAuditPublisher(auditPublisher),
		ratelimit.WithTrustedProxies(proxies),
	).Limit("auth", ratelimit.Limit{
		Requests: cfg.RateLimit.AuthRequests,
		Window:   cfg.RateLimit.AuthWindow,
	})

	a.router = httptransport.NewRouter(httptransport.RouterConfig{
		Logger:            log,
		Metrics:           m,
		Validator:         tokens,
		RevocationChecker: revocations,
		HealthChecks:      health,
		AuthThrottle:      authThrottle,
		Auth:              httptransport.NewAuthHandler(registrar, accounts, tokens, revocations, profiles, log),
		Me:                httptransport.NewMeHandler(profiles, log),
		Catalog:           httptransport.NewCatalogHandler(catalog, log),
	})
	return a, nil
}

func buildAudit(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	db *postgres.DB,
	health map[string]httptransport.HealthCheck,
	a *app,
) (*publisher.Publisher, error) {
	var store audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		store = auditpostgres.New(db.DB)
	}
	opts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafkasink.New(kafkasink.Config{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.AuditTopic,
			Partitions: cfg.Kafka.Partitions,
		})
		if err != nil {
			return nil, err
		}
		a.onClose(sink.Close)
		if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions); err != nil {
			return nil, err
		}
		health["kafka"] = sink.Health
		opts = append(opts, publisher.WithSink(sink))
	}
	p := publisher.NewPublisher(store, opts...)
	a.onClose(p.Close)
	return p, nil
}

func buildClassifier(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) biometric.Classifier {
	if cfg.Classifier.RuntimeURL == "" {
		log.Warn("no classifier runtime configured; registrations with a camera frame will be refused")
		return biometric.NotConfigured
	}
	breaker := circuit.New("classifier",
		circuit.WithFailureThreshold(cfg.Classifier.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Classifier.SuccessThreshold),
		circuit.WithCooldown(cfg.Classifier.Cooldown),
	)
	client, err := runtime.New(runtime.Config{
		BaseURL:        cfg.Classifier.RuntimeURL,
		ModelBundleURL: cfg.Classifier.ModelBundleURL,
		Timeout:        cfg.Classifier.Timeout,
	},
		runtime.WithLogger(log),
		runtime.WithMetrics(m),
		runtime.WithBreaker(breaker),
	)
	if err != nil {
		log.Error("classifier runtime misconfigured", "error", err)
		return biometric.NotConfigured
	}
	return client
}

type revocationList interface {
	httptransport.SessionRevoker
	auth.TokenRevocationChecker
}

type catalogStore interface {
	catalogservice.Store
	Replace(ctx context.Context, entities []catalogmodels.Entity, collabs []catalogmodels.Collab) error
}

// buildCatalog selects the catalog store and loads the seed file into it when
// one is configured.
func buildCatalog(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	db *postgres.DB,
	profiles catalogservice.ProfileReader,
) (*catalogservice.Service, error) {
	var store catalogStore = catalogstore.NewInMemory()
	if db != nil {
		store = catalogstore.NewPostgres(db.DB)
	}
	if cfg.Catalog.SeedFile != "" {
		seed, err := catalogstore.ReadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("read catalog seed: %w", err)
		}
		entities, collabs := seed.ToEntities(), seed.ToCollabs()
		if err := store.Replace(ctx, entities, collabs); err != nil {
			return nil, fmt.Errorf("load catalog seed: %w", err)
		}
		log.Info("catalog seeded", "entities", len(entities), "collabs", len(collabs))
	}

	resolver := visibility.NewResolver(
		visibility.PolicyFromStrings(cfg.Visibility.RestrictedGenders),
		visibility.WithMetrics(m),
	)
	return catalogservice.New(store, profiles, resolver,
		catalogservice.WithLogger(log),
		catalogservice.WithMetrics(m),
		catalogservice.WithPageSizes(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize),
	)
}
