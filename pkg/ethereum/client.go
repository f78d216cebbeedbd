package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimestampCacheSize = 4096

// ErrNoWebSocket is returned by SubscribeFilterLogs when no websocket endpoint is configured.
var ErrNoWebSocket = errors.New("websocket endpoint not configured")

// Client represents an Ethereum client bound to the DAO, treasury and token contracts
type Client struct {
	config     *config.EthereumConfig
	client     rpcBackend
	wsClient   rpcBackend
	limiter    *rate.Limiter
	timestamps *lru.Cache[uint64, time.Time]
	logger     *zap.Logger

	dao      *contracts.GovernanceDAO
	treasury *contracts.Treasury
	token    *contracts.GovernanceToken
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	timestampCacheSize int
}

// WithTimestampCacheSize sets how many block timestamps are kept in memory
func WithTimestampCacheSize(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.timestampCacheSize = n
		}
	}
}

// NewClient creates a new Ethereum client
func NewClient(cfg *config.EthereumConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	// Connect to Ethereum RPC
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	// Connect to WebSocket for event streaming (optional)
	var wsClient rpcBackend
	if cfg.WSUrl != "" {
		ws, err := ethclient.Dial(cfg.WSUrl)
		if err != nil {
			logger.Warn("Failed to connect to Ethereum WebSocket, falling back to polling",
				zap.Error(err))
		} else {
			wsClient = ws
		}
	}

	c, err := newClient(cfg, client, wsClient, logger, opts...)
	if err != nil {
		client.Close()
		if wsClient != nil {
			wsClient.Close()
		}
		return nil, err
	}

	logger.Info("Connected to Ethereum",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.Bool("websocket", wsClient != nil),
		zap.String("dao_contract", c.dao.Address().Hex()),
		zap.String("treasury_contract", c.treasury.Address().Hex()),
		zap.String("token_contract", c.token.Address().Hex()))

	return c, nil
}

func newClient(cfg *config.EthereumConfig, client, wsClient rpcBackend, logger *zap.Logger, opts ...Option) (*Client, error) {
	o := clientOptions{timestampCacheSize: defaultTimestampCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.RequestBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	timestamps, err := lru.New[uint64, time.Time](o.timestampCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create timestamp cache: %w", err)
	}

	backend := &limitedBackend{rpcBackend: client, limiter: limiter}

	dao, err := contracts.NewGovernanceDAO(common.HexToAddress(cfg.DAOContract), backend)
	if err != nil {
		return nil, fmt.Errorf("failed to load DAO contract: %w", err)
	}
	treasury, err := contracts.NewTreasury(common.HexToAddress(cfg.TreasuryAddress), backend)
	if err != nil {
		return nil, fmt.Errorf("failed to load treasury contract: %w", err)
	}
	token, err := contracts.NewGovernanceToken(common.HexToAddress(cfg.TokenContract), backend)
	if err != nil {
		return nil, fmt.Errorf("failed to load token contract: %w", err)
	}

	return &Client{
		config:     cfg,
		client:     backend,
		wsClient:   wsClient,
		limiter:    limiter,
		timestamps: timestamps,
		logger:     logger,
		dao:        dao,
		treasury:   treasury,
		token:      token,
	}, nil
}

// Close closes the Ethereum clients
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
	if c.wsClient != nil {
		c.wsClient.Close()
	}
}

// DAO returns the governance DAO contract handle
func (c *Client) DAO() *contracts.GovernanceDAO { return c.dao }

// Treasury returns the treasury contract handle
func (c *Client) Treasury() *contracts.Treasury { return c.treasury }

// Token returns the governance token contract handle
func (c *Client) Token() *contracts.GovernanceToken { return c.token }

// Addresses returns the contract addresses the indexer filters on
func (c *Client) Addresses() []common.Address {
	return []common.Address{c.dao.Address(), c.treasury.Address(), c.token.Address()}
}

// HasWebSocket reports whether log subscriptions are available
func (c *Client) HasWebSocket() bool {
	return c.wsClient != nil
}

// LatestBlockNumber gets the latest block number
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// FilterLogs runs a single eth_getLogs query
func (c *Client) FilterLogs(ctx context.Context, q geth.FilterQuery) ([]types.Log, error) {
	logs, err := c.client.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs: %w", err)
	}
	return logs, nil
}

// SubscribeFilterLogs subscribes to new logs over the websocket connection
func (c *Client) SubscribeFilterLogs(ctx context.Context, q geth.FilterQuery, ch chan<- types.Log) (geth.Subscription, error) {
	if c.wsClient == nil {
		return nil, ErrNoWebSocket
	}
	sub, err := c.wsClient.SubscribeFilterLogs(ctx, q, ch)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to logs: %w", err)
	}
	return sub, nil
}

// BlockTimestamp returns the timestamp of block number. Results are cached
// since finalized headers never change.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (time.Time, error) {
	if ts, ok := c.timestamps.Get(number); ok {
		return ts, nil
	}
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get header %d: %w", number, err)
	}
	ts := time.Unix(int64(header.Time), 0).UTC()
	c.timestamps.Add(number, ts)
	return ts, nil
}

// TransactionInput returns the call data of a transaction
func (c *Client) TransactionInput(ctx context.Context, hash common.Hash) ([]byte, error) {
	tx, _, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
	}
	return tx.Data(), nil
}
