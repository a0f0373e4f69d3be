package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/db/redis"
	"github.com/house-of-voi/hov-engine/events/kafka"
	"github.com/house-of-voi/hov-engine/logging"
	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/pkg/jackpot"
	"github.com/house-of-voi/hov-engine/provider"
	"github.com/house-of-voi/hov-engine/verify"
	enginewire "github.com/house-of-voi/hov-engine/wire"
)

var version = getVersion()

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hovengine",
		Short: "House of Voi slot outcome engine",
		Long: `House of Voi engine service.

Derives provably-fair slot outcomes from chain block seeds and bet
keys, serves the game bridge over WebSocket, and lets anyone replay a
claimed outcome from public inputs.

Example:
  hovengine serve --config config/config.yaml
  hovengine verify --machine w2w-buffalo --grid 0B0C0D011101F1E1 ...`,
		Version: version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVerifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.New(cfg.Logging)

			redisClient, err := redis.New(cfg.Redis)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to connect to Redis")
			}

			var producer *kafka.Producer
			if len(cfg.Kafka.Brokers) > 0 {
				producer, err = kafka.NewProducer(cfg.Kafka.Brokers)
				if err != nil {
					logger.Fatal().Err(err).Msg("Failed to connect to Kafka")
				}
			}

			machines, err := enginewire.ProvideMachineRegistry(cfg)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to load machines")
			}

			app := enginewire.ProvideApp(enginewire.ProvideServerOptions(
				cfg, logger, machines, jackpot.NewRedisStore(redisClient),
			))
			app.SetStateProvider(provider.NewStateProvider(redisClient, logger))
			app.SetWalletProvider(provider.NewWalletProvider(cfg, logger))
			app.SetAuditProvider(provider.NewAuditProvider(producer, logger))
			app.SetSeedSource(enginewire.ProvideSeedSource(cfg, logger))

			app.UseCommonMiddlewares()
			app.RegisterHealthCheck()
			app.RegisterEngineRoutes()

			// Mirror pool movements from other instances into the local
			// broadcast buffer.
			if len(cfg.Kafka.Brokers) > 0 {
				feed := make(chan jackpot.Update, 256)
				app.AttachJackpotUpdateFeed(feed)

				topic := provider.TopicJackpots
				if t, ok := cfg.Kafka.Topics["jackpot_updates"]; ok {
					topic = t
				}
				consumer := kafka.NewConsumer(kafka.ConsumerConfig{
					Brokers:       cfg.Kafka.Brokers,
					Topic:         topic,
					ConsumerGroup: cfg.Kafka.ConsumerGroup + "-jackpot",
					Logger:        logger,
				}, kafka.NewJackpotCache(logger))
				if err := consumer.Start(); err != nil {
					logger.Fatal().Err(err).Msg("Failed to start jackpot consumer")
				}
				sub := consumer.SubscribeAll()
				go func() {
					for evt := range sub.Channel {
						feed <- jackpot.Update{
							MachineID: evt.MachineID,
							Value:     evt.NewValue,
							Hit:       evt.Hit,
							Timestamp: evt.UpdatedAt,
						}
					}
				}()
				app.OnShutdown(func() {
					consumer.Unsubscribe(sub)
					_ = consumer.Stop()
				})
			}

			app.OnShutdown(func() {
				if producer != nil {
					producer.Close()
				}
				_ = redisClient.Close()
			})

			logger.Info().Int("port", cfg.Server.Port).Msg("Starting engine service")
			return app.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to config file")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var (
		machineFile  string
		machineID    string
		gridStr      string
		totalPayout  uint64
		blockSeedHex string
		betKeyHex    string
		bonusRound   bool
		jackpotValue uint64
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a claimed spin outcome from public inputs",
		Long: `Recomputes the grid and payout for a claimed spin outcome from the
block seed and bet key, and prints the fairness certificate. Exits
non-zero when the claim does not match the recomputation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *machine.Machine
			var err error
			if machineFile != "" {
				m, err = machine.Load(machineFile)
				if err != nil {
					return err
				}
			} else {
				m, err = machine.DefaultRegistry().Get(machineID)
				if err != nil {
					return err
				}
			}

			cert, err := verify.VerifySpinOutcome(
				verify.Claim{GridString: gridStr, TotalPayout: totalPayout},
				blockSeedHex,
				betKeyHex,
				m.VerifyParams(bonusRound, jackpotValue),
			)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(cert, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if !cert.Valid {
				return fmt.Errorf("outcome does not match: %d mismatch(es)", len(cert.Mismatches))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&machineFile, "machine-file", "", "Machine YAML file (overrides --machine)")
	cmd.Flags().StringVarP(&machineID, "machine", "m", "w2w-buffalo", "Built-in machine id")
	cmd.Flags().StringVarP(&gridStr, "grid", "g", "", "Claimed 15-character grid string")
	cmd.Flags().Uint64VarP(&totalPayout, "payout", "p", 0, "Claimed total payout in microVOI")
	cmd.Flags().StringVarP(&blockSeedHex, "block-seed", "s", "", "Block seed as hex")
	cmd.Flags().StringVarP(&betKeyHex, "bet-key", "k", "", "112-character bet key hex")
	cmd.Flags().BoolVar(&bonusRound, "bonus", false, "Spin occurred during a bonus round")
	cmd.Flags().Uint64Var(&jackpotValue, "jackpot", 0, "Jackpot value paid on this spin, if any")
	_ = cmd.MarkFlagRequired("grid")
	_ = cmd.MarkFlagRequired("block-seed")
	_ = cmd.MarkFlagRequired("bet-key")

	return cmd
}
