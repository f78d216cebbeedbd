package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
database:
  host: db.internal
  user: gov
ethereum:
  rpc_url: ${TEST_GOV_RPC_URL}
  dao_contract: "0x1111111111111111111111111111111111111111"
  treasury_contract: "0x2222222222222222222222222222222222222222"
  token_contract: "0x3333333333333333333333333333333333333333"
`

func TestParse_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GOV_RPC_URL", "http://localhost:8545")

	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", cfg.Ethereum.RPCURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, uint64(1000), cfg.Indexer.ChunkSize)
	assert.Equal(t, "dao", cfg.Indexer.CursorName)
	assert.Equal(t, 15*time.Second, cfg.Ethereum.PollingInterval)
	assert.Equal(t, 5*time.Minute, cfg.Realtime.HeartbeatTimeout)
	assert.Equal(t, "100", cfg.Governance.QuorumVotes)
	assert.True(t, cfg.Monitoring.Enabled)
	assert.Equal(t, "dao_governance", cfg.Database.Database)
}

func TestParse_RejectsChunkSizeAboveProviderLimit(t *testing.T) {
	t.Setenv("TEST_GOV_RPC_URL", "http://localhost:8545")

	_, err := Parse([]byte(minimalConfig + "indexer:\n  chunk_size: 5000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ChunkSize")
}

func TestParse_RejectsInvalidContractAddress(t *testing.T) {
	t.Setenv("TEST_GOV_RPC_URL", "http://localhost:8545")

	raw := strings.Replace(minimalConfig, "0x1111111111111111111111111111111111111111", "not-an-address", 1)
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAOContract")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("TEST_GOV_RPC_URL", "http://rpc.example")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "host=db.internal port=5432 user=gov password= dbname=dao_governance sslmode=disable",
		cfg.Database.GetConnectionString())
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.log")
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "json", OutputPath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
}
