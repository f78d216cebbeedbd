package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Ethereum   EthereumConfig   `yaml:"ethereum"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Governance GovernanceConfig `yaml:"governance"`
	IPFS       IPFSConfig       `yaml:"ipfs"`
	Explorer   ExplorerConfig   `yaml:"explorer"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `yaml:"host" default:"0.0.0.0"`
	Port              int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout      time.Duration `yaml:"write_timeout" default:"15s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" default:"30s"`
	RequestTimeout    time.Duration `yaml:"request_timeout" default:"60s"`
	RequireSignatures bool          `yaml:"require_signatures"`
	RateLimitPerSec   float64       `yaml:"rate_limit_per_sec" default:"20"`
	RateLimitBurst    int           `yaml:"rate_limit_burst" default:"40"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"dao_governance" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`

	MaxOpenConns    int           `yaml:"max_open_conns" default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
}

// EthereumConfig contains chain client and contract settings
type EthereumConfig struct {
	RPCURL          string        `yaml:"rpc_url" validate:"required"`
	WSUrl           string        `yaml:"ws_url"`
	ChainID         int64         `yaml:"chain_id" default:"421614"`
	DAOContract     string        `yaml:"dao_contract" validate:"required,eth_addr"`
	TreasuryAddress string        `yaml:"treasury_contract" validate:"required,eth_addr"`
	TokenContract   string        `yaml:"token_contract" validate:"required,eth_addr"`
	PollingInterval time.Duration `yaml:"polling_interval" default:"15s"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" default:"10"`
	RequestBurst    int           `yaml:"request_burst" default:"10"`
}

// IndexerConfig contains historical backfill settings
type IndexerConfig struct {
	StartBlock        uint64        `yaml:"start_block"`
	ChunkSize         uint64        `yaml:"chunk_size" default:"1000" validate:"min=1,max=1000"`
	CursorName        string        `yaml:"cursor_name" default:"dao"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" default:"5m"`
	PipelineBuffer    int           `yaml:"pipeline_buffer" default:"64"`
	TimestampCache    int           `yaml:"timestamp_cache" default:"4096"`
}

// GovernanceConfig contains governance rules used for state derivation and validation
type GovernanceConfig struct {
	// QuorumVotes is the minimum total vote weight, as a decimal integer string.
	QuorumVotes string `yaml:"quorum_votes" default:"100" validate:"numeric"`
	// ProposalThreshold is the minimum proposer voting power, as a decimal integer string.
	ProposalThreshold string        `yaml:"proposal_threshold" default:"1000000000000000000" validate:"numeric"`
	ExecutionDelay    time.Duration `yaml:"execution_delay"`
	GracePeriod       time.Duration `yaml:"grace_period"`
	CacheSize         int           `yaml:"cache_size" default:"1024"`
}

// IPFSConfig contains Pinata pinning service settings
type IPFSConfig struct {
	APIURL     string        `yaml:"api_url" default:"https://api.pinata.cloud"`
	GatewayURL string        `yaml:"gateway_url" default:"https://gateway.pinata.cloud/ipfs"`
	JWT        string        `yaml:"jwt"`
	Timeout    time.Duration `yaml:"timeout" default:"30s"`
}

// ExplorerConfig contains Etherscan-compatible block explorer settings
type ExplorerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	APIURL         string        `yaml:"api_url" default:"https://api-sepolia.arbiscan.io/api"`
	APIKey         string        `yaml:"api_key"`
	RequestsPerSec float64       `yaml:"requests_per_sec" default:"4"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
}

// RealtimeConfig contains websocket fan-out settings
type RealtimeConfig struct {
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" default:"5m"`
	SweepInterval    time.Duration `yaml:"sweep_interval" default:"30s"`
	MaxClients       int           `yaml:"max_clients" default:"10000"`
	SendBuffer       int           `yaml:"send_buffer" default:"256"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
	MaxBackups int    `yaml:"max_backups" default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" default:"14"`
}

// Load loads configuration from a YAML file. ${VAR} references are expanded
// from the environment before parsing.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes, defaults and validates configuration from raw YAML.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
