package wire

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/chain"
	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/db/redis"
	"github.com/house-of-voi/hov-engine/events/kafka"
	"github.com/house-of-voi/hov-engine/httpclient"
	"github.com/house-of-voi/hov-engine/logging"
	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/pkg/jackpot"
	"github.com/house-of-voi/hov-engine/provider"
	"github.com/house-of-voi/hov-engine/server"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideKafkaProducer provides a Kafka producer. Deployments without
// brokers run with audit publishing disabled.
func ProvideKafkaProducer(cfg *config.Config) (*kafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return kafka.NewProducer(cfg.Kafka.Brokers)
}

// ProvideMachineRegistry loads every machine definition from the
// configured directory, falling back to the shipped defaults.
func ProvideMachineRegistry(cfg *config.Config) (*machine.Registry, error) {
	if cfg.MachinesDir == "" {
		return machine.DefaultRegistry(), nil
	}
	machines, err := machine.LoadDir(cfg.MachinesDir)
	if err != nil {
		return nil, err
	}
	return machine.NewRegistry(machines)
}

// ProvideJackpotStore provides the Redis-backed jackpot pool store
func ProvideJackpotStore(client *redis.Client) jackpot.Store {
	return jackpot.NewRedisStore(client)
}

// ProvideSeedSource provides the indexer-backed chain seed source
func ProvideSeedSource(cfg *config.Config, logger zerolog.Logger) chain.SeedSource {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.Chain.IndexerURL,
		Timeout: cfg.Chain.Timeout,
		Logger:  logger,
	})
	return chain.NewIndexerSeedSource(client, logger)
}

// ProvideStateProvider provides the queue snapshot store
func ProvideStateProvider(client *redis.Client, logger zerolog.Logger) *provider.StateProvider {
	return provider.NewStateProvider(client, logger)
}

// ProvideWalletProvider provides the wallet service client
func ProvideWalletProvider(cfg *config.Config, logger zerolog.Logger) *provider.WalletProvider {
	return provider.NewWalletProvider(cfg, logger)
}

// ProvideAuditProvider provides the audit event publisher
func ProvideAuditProvider(producer *kafka.Producer, logger zerolog.Logger) *provider.AuditProvider {
	return provider.NewAuditProvider(producer, logger)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(cfg *config.Config, logger zerolog.Logger, machines *machine.Registry, store jackpot.Store) server.Options {
	return server.Options{
		Config:       cfg,
		Logger:       logger,
		Machines:     machines,
		JackpotStore: store,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// StorageSet is the wire provider set for Redis-backed stores
var StorageSet = wire.NewSet(
	ProvideRedisClient,
	ProvideJackpotStore,
	ProvideStateProvider,
)

// ChainSet is the wire provider set for chain collaborators
var ChainSet = wire.NewSet(
	ProvideSeedSource,
	ProvideWalletProvider,
)

// EventsSet is the wire provider set for the event bus
var EventsSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideAuditProvider,
)

// ServerSet is the wire provider set for the server
var ServerSet = wire.NewSet(
	ProvideMachineRegistry,
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	ServerSet,
)

// FullSet includes every provider the serve command uses
var FullSet = wire.NewSet(
	DefaultSet,
	StorageSet,
	ChainSet,
	EventsSet,
)
