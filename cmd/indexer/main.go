package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rawrshakScope/internal/chain"
	"rawrshakScope/internal/config"
	"rawrshakScope/internal/contracts"
	"rawrshakScope/internal/metrics"
	"rawrshakScope/internal/reducer"
	"rawrshakScope/internal/source"
	"rawrshakScope/internal/storage"
	"rawrshakScope/internal/store"
	"rawrshakScope/internal/store/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Rawrshak event indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Reduce contract events from the chain into the entity store",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL")
	runCmd.Flags().String("resolver", "", "address resolver contract")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (empty uses in-memory store)")
	runCmd.Flags().String("campaign", "", "campaign file path (empty uses the built-in campaign)")
	runCmd.Flags().String("raw-out", "", "optional raw log capture JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("metrics-addr", "", "optional Prometheus listen address (e.g. :9090)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Reduce a raw log capture into the entity store",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input raw logs JSONL")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN (empty uses in-memory store)")
	replayCmd.Flags().String("campaign", "", "campaign file path (empty uses the built-in campaign)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Resolver) {
		return fmt.Errorf("resolver address is required")
	}

	campaign, err := config.LoadCampaign(cfg.CampaignFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	kv, closeStore, err := openStore(ctx, cfg.PGDSN, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var raw source.RawSink
	if cfg.RawOut != "" {
		sink, err := storage.NewJsonlStorage(cfg.RawOut)
		if err != nil {
			return err
		}
		defer sink.Close()
		raw = sink
	}

	decoder, err := contracts.NewDecoder()
	if err != nil {
		return err
	}

	subs := source.NewSubscriptionSet(common.HexToAddress(cfg.Resolver))
	red := reducer.New(campaign, kv, subs, logger)

	runner := source.NewRunner(source.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, subs, decoder, red, raw, logger)

	var wg sync.WaitGroup
	if cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.Serve(ctx, cfg.MetricsAddr, logger)
		}()
	}

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("resolver", cfg.Resolver),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	err = runner.Run(ctx)
	stop()
	wg.Wait()
	return err
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	campaign, err := config.LoadCampaign(cfg.CampaignFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := openStore(ctx, cfg.PGDSN, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reader, err := storage.NewJsonlReader(cfg.Input)
	if err != nil {
		return err
	}
	defer reader.Close()

	decoder, err := contracts.NewDecoder()
	if err != nil {
		return err
	}

	// Replay watches nothing; the capture already holds every log.
	subs := source.NewSubscriptionSet()
	red := reducer.New(campaign, kv, subs, logger)

	logger.Info("replay start", zap.String("in", cfg.Input))
	return source.Replay(ctx, reader, decoder, red, logger)
}

func openStore(ctx context.Context, dsn string, logger *zap.Logger) (store.KV, func(), error) {
	if dsn == "" {
		logger.Warn("no pg-dsn configured, entities are kept in memory only")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
