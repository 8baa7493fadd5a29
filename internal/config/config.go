package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunConfig holds settings for the live indexing loop.
type RunConfig struct {
	RPCURL            string
	Resolver          string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	PGDSN             string
	CampaignFile      string
	RawOut            string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
}

// ReplayConfig holds settings for reducing a raw-log capture.
type ReplayConfig struct {
	Input        string
	PGDSN        string
	CampaignFile string
	LogLevel     string
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		RPCURL:            v.GetString("rpc"),
		Resolver:          v.GetString("resolver"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		PGDSN:             v.GetString("pg-dsn"),
		CampaignFile:      v.GetString("campaign"),
		RawOut:            v.GetString("raw-out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// LoadReplay merges config file, environment variables, and flags into
// ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		Input:        v.GetString("in"),
		PGDSN:        v.GetString("pg-dsn"),
		CampaignFile: v.GetString("campaign"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
