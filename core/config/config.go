package config

import (
	"fmt"
	"os"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/AvaProtocol/ap-airdrop/core/taskengine"
)

// Config contains everything the automator needs to run, built from ConfigRaw
type Config struct {
	Logger      sdklogging.Logger
	Environment sdklogging.LogLevel

	DbPath     string
	Passphrase string `json:"-"`

	CatalogURL      string
	CatalogCacheTTL time.Duration

	BackupDir      string
	BackupInterval time.Duration

	HttpBindAddress string

	Execution taskengine.Options
	GasBuffer decimal.Decimal
}

// These are read from configPath
type ConfigRaw struct {
	Environment     sdklogging.LogLevel `yaml:"environment" validate:"omitempty,oneof=production development"`
	DbPath          string              `yaml:"db_path" validate:"required"`
	Passphrase      string              `yaml:"passphrase"`
	CatalogURL      string              `yaml:"catalog_url" validate:"omitempty,url"`
	CatalogCacheTTL string              `yaml:"catalog_cache_ttl"`
	BackupDir       string              `yaml:"backup_dir"`
	BackupInterval  string              `yaml:"backup_interval"`
	HttpBindAddress string              `yaml:"http_bind_address" validate:"omitempty,hostname_port"`

	Execution ExecutionRaw `yaml:"execution"`
	Cascade   CascadeRaw   `yaml:"cascade"`
}

type ExecutionRaw struct {
	RandomizeOrder bool    `yaml:"randomize_order"`
	TestnetDelay   float64 `yaml:"testnet_delay" validate:"gte=0"`
	WalletDelay    float64 `yaml:"wallet_delay" validate:"gte=0"`
	RandomizeGas   bool    `yaml:"randomize_gas"`
}

type CascadeRaw struct {
	GasBuffer string `yaml:"gas_buffer"`
}

// NewConfig reads the YAML file at configFilePath, applies the environment
// overrides and validates the result. An empty path yields the defaults.
func NewConfig(configFilePath string) (*Config, error) {
	configRaw := DefaultRaw()

	if configFilePath != "" {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFilePath, err)
		}

		if err := yaml.UnmarshalStrict(data, &configRaw); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", configFilePath, err)
		}
	}

	applyEnvOverrides(&configRaw)

	return FromRaw(configRaw)
}

// DefaultRaw is the configuration used for every key the file leaves out
func DefaultRaw() ConfigRaw {
	return ConfigRaw{
		Environment:     sdklogging.Development,
		DbPath:          "/tmp/ap-airdrop/db",
		CatalogCacheTTL: "30m",
		BackupDir:       "/tmp/ap-airdrop/backup",
		HttpBindAddress: "localhost:8090",
		Execution: ExecutionRaw{
			TestnetDelay: 5,
			WalletDelay:  2,
		},
		Cascade: CascadeRaw{
			GasBuffer: "0.001",
		},
	}
}

// FromRaw validates raw values and converts them into a Config
func FromRaw(configRaw ConfigRaw) (*Config, error) {
	if err := validator.New().Struct(configRaw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if configRaw.Environment == "" {
		configRaw.Environment = sdklogging.Development
	}

	catalogTTL, err := parseDuration("catalog_cache_ttl", configRaw.CatalogCacheTTL)
	if err != nil {
		return nil, err
	}

	backupInterval, err := parseDuration("backup_interval", configRaw.BackupInterval)
	if err != nil {
		return nil, err
	}

	gasBuffer, err := parseDecimal("cascade.gas_buffer", configRaw.Cascade.GasBuffer)
	if err != nil {
		return nil, err
	}

	logger, err := sdklogging.NewZapLogger(configRaw.Environment)
	if err != nil {
		return nil, err
	}

	return &Config{
		Logger:          logger,
		Environment:     configRaw.Environment,
		DbPath:          configRaw.DbPath,
		Passphrase:      configRaw.Passphrase,
		CatalogURL:      configRaw.CatalogURL,
		CatalogCacheTTL: catalogTTL,
		BackupDir:       configRaw.BackupDir,
		BackupInterval:  backupInterval,
		HttpBindAddress: configRaw.HttpBindAddress,
		Execution: taskengine.Options{
			RandomizeOrder: configRaw.Execution.RandomizeOrder,
			TestnetDelay:   configRaw.Execution.TestnetDelay,
			WalletDelay:    configRaw.Execution.WalletDelay,
			RandomizeGas:   configRaw.Execution.RandomizeGas,
		},
		GasBuffer: gasBuffer,
	}, nil
}
