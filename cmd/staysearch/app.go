package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysearch/internal/app/fetch"
	"staysearch/internal/app/handlers/properties"
	"staysearch/internal/app/interpret"
	"staysearch/internal/app/locations"
	"staysearch/internal/app/middleware"
	"staysearch/internal/app/normalize"
	"staysearch/internal/app/queries"
	"staysearch/internal/app/ranking"
	appsearch "staysearch/internal/app/search"
	"staysearch/internal/infra/broker/kafka"
	"staysearch/internal/infra/broker/rabbitmq"
	"staysearch/internal/infra/config"
	mongodb "staysearch/internal/infra/db/mongo"
	"staysearch/internal/infra/events"
	"staysearch/internal/infra/health"
	ginserver "staysearch/internal/infra/http/gin"
	"staysearch/internal/infra/llm"
	"staysearch/internal/infra/obs"
	"staysearch/internal/infra/resilience"
	"staysearch/internal/infra/sources"
)

type closer struct {
	name string
	fn   func() error
}

type application struct {
	handlers ginserver.Handlers
	monitor  *health.Monitor
	worker   *events.Worker
	sources  []fetch.Source
	details  []properties.DetailSource
	closers  []closer
}

var errNoSources = errors.New("no listing sources configured")

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) *application {
	app := &application{}

	var sink appsearch.EventSink = events.Noop{}
	emitter, worker := app.buildEvents(cfg, logger, metrics)
	listeners := []resilience.StateListener{metrics.OnCircuitChange}
	if emitter != nil {
		sink = emitter
		app.worker = worker
		listeners = append(listeners, events.CircuitListener(emitter, logger))
	}

	probes := app.buildSources(ctx, cfg, logger)

	collaborator := llm.NewOpenRouter(llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.OpenRouterModel,
		AppURL:  cfg.AppURL,
	}, logger)
	var ranker ranking.Collaborator
	var suggester properties.Suggester
	var summarizer properties.Summarizer
	var enhancer properties.Enhancer
	if collaborator.Enabled() {
		ranker, suggester = collaborator, collaborator
		summarizer, enhancer = collaborator, collaborator
		probes = append(probes, health.Probe{Name: ranking.CollaboratorName, Kind: health.KindRanking, Pinger: collaborator})
	} else {
		logger.Info("ranking collaborator disabled, using deterministic ranking")
	}

	breakers := resilience.NewBreakerRegistry(resilience.BreakerSettings{
		FailureThreshold: uint32(cfg.FailureThreshold),
		RecoveryTimeout:  cfg.RecoveryTimeout,
	}, logger, listeners...)

	app.monitor = health.NewMonitor(cfg.HealthSchedule, logger, probes...)
	app.monitor.Circuits = breakers.Snapshot

	fetcher := &fetch.Fetcher{
		Breakers: breakers,
		Retry: resilience.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Base:       cfg.RetryBase,
			Cap:        cfg.RetryCap,
			Logger:     logger,
		},
		CallTimeout: cfg.CallTimeout,
		Health:      app.monitor,
		Metrics:     metrics,
		Logger:      logger,
	}

	catalog := locations.DefaultCatalog()
	engine := &appsearch.Engine{
		Interpreter: interpret.New(catalog, logger),
		Resolver:    locations.NewResolver(catalog, logger),
		Dispatcher:  &fetch.Dispatcher{Fetcher: fetcher, MaxConcurrency: cfg.MaxConcurrency, Logger: logger},
		Normalizer:  normalize.Normalizer{Logger: logger},
		Ranker: &ranking.Selector{
			Collaborator: ranker,
			Health:       app.monitor,
			Timeout:      cfg.RankingTimeout,
			Metrics:      metrics,
			Logger:       logger,
		},
		Sources: app.sources,
		Events:  sink,
		Metrics: metrics,
		Logger:  logger,
	}

	recent := properties.NewRecentProperties(cfg.PropertyCacheSize)
	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, &properties.SearchPropertiesHandler{
		Engine:         engine,
		Recent:         recent,
		Summarizer:     summarizer,
		SummaryTimeout: cfg.RankingTimeout,
		Logger:         logger,
	})
	queries.Register(queryBus, &properties.GetPropertyHandler{
		Recent:     recent,
		Sources:    app.details,
		Normalizer: normalize.Normalizer{Logger: logger},
		Enhancer:   enhancer,
		Timeout:    cfg.RankingTimeout,
		Logger:     logger,
	})
	queries.Register(queryBus, &properties.SuggestHandler{
		Suggester: suggester,
		Timeout:   cfg.RankingTimeout,
		Logger:    logger,
	})
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(properties.Validator{}),
	)

	app.handlers = ginserver.Handlers{
		Search:  ginserver.SearchHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Metrics: metrics.Handler(),
	}
	return app
}

// buildSources registers every enabled source and returns its health probes.
func (a *application) buildSources(ctx context.Context, cfg config.Config, logger *slog.Logger) []health.Probe {
	var store sources.Store
	if cfg.RedisURL != "" {
		rdb, err := sources.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("listing cache disabled", "error", err)
		} else {
			store = sources.RedisStore{Client: rdb}
			a.closers = append(a.closers, closer{name: "redis", fn: rdb.Close})
		}
	}
	cached := func(src sources.Upstream) fetch.Source {
		if store == nil {
			return src
		}
		return sources.NewCached(src, store, cfg.CacheTTL, logger)
	}

	if cfg.SourceEnabled(sources.FixturesName) {
		fixtures := sources.NewFixtures(0)
		path := cfg.FixturesPath
		if path == "" {
			path = sources.DefaultFixturesPath()
		}
		if err := fixtures.Load(path, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", path)
		}
		a.sources = append(a.sources, fixtures)
		a.details = append(a.details, fixtures)
	}
	if cfg.SourceEnabled(sources.MongoName) && cfg.MongoURI != "" {
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB, 10*time.Second)
		if err != nil {
			logger.Warn("mongo source disabled", "error", err)
		} else {
			mongoSource := sources.NewMongo(client.Collection(cfg.MongoCollection), 0)
			a.sources = append(a.sources, cached(mongoSource))
			a.details = append(a.details, mongoSource)
			a.closers = append(a.closers, closer{name: "mongo", fn: func() error { return client.Close(context.Background()) }})
		}
	}
	if cfg.SourceEnabled(sources.RapidAPIName) && cfg.RapidAPIKey != "" {
		a.sources = append(a.sources, cached(sources.NewRapidAPI(cfg.RapidAPIBaseURL, cfg.RapidAPIHost, cfg.RapidAPIKey, logger)))
	}

	probes := make([]health.Probe, 0, len(a.sources))
	for _, src := range a.sources {
		if p, ok := src.(health.Pinger); ok {
			probes = append(probes, health.Probe{Name: src.Name(), Kind: health.KindSource, Pinger: p})
		}
	}
	return probes
}

// buildEvents picks Kafka, then RabbitMQ. Without a broker events are discarded.
func (a *application) buildEvents(cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*events.Emitter, *events.Worker) {
	var producer events.Producer
	switch {
	case len(cfg.KafkaBrokers) > 0:
		p, err := kafka.NewProducer(cfg.KafkaBrokers, "staysearch")
		if err != nil {
			logger.Warn("kafka events disabled", "error", err)
			return nil, nil
		}
		producer = p
		a.closers = append(a.closers, closer{name: "kafka", fn: p.Close})
	case cfg.RabbitMQURL != "":
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitExchange, logger)
		if err != nil {
			logger.Warn("rabbitmq events disabled", "error", err)
			return nil, nil
		}
		producer = p
		a.closers = append(a.closers, closer{name: "rabbitmq", fn: p.Close})
	default:
		return nil, nil
	}
	queue := events.NewQueue(0)
	worker := &events.Worker{
		Queue:       queue,
		Producer:    producer,
		Interval:    cfg.EventsInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Metrics:     metrics,
		Logger:      logger,
	}
	return events.NewEmitter(queue), worker
}

func (a *application) ready() error {
	if len(a.sources) == 0 {
		return errNoSources
	}
	return nil
}

func (a *application) sourceNames() []string {
	names := make([]string, 0, len(a.sources))
	for _, src := range a.sources {
		names = append(names, src.Name())
	}
	return names
}

func (a *application) close(logger *slog.Logger) {
	a.monitor.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].fn(); err != nil {
			logger.Warn("close failed", "component", a.closers[i].name, "error", err)
		}
	}
}
