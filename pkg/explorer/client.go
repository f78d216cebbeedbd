// Package explorer talks to Etherscan compatible block explorer APIs.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/chainsafe/dao-governance/pkg/config"
)

// ErrDisabled is returned by every call when the explorer integration is off.
var ErrDisabled = errors.New("block explorer integration is disabled")

// Client is a rate limited Etherscan compatible API client.
type Client struct {
	enabled bool
	apiURL  string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Transaction is an entry of the account txlist endpoint.
type Transaction struct {
	Hash        common.Hash
	BlockNumber uint64
	Timestamp   time.Time
	From        common.Address
	To          common.Address
	Value       *big.Int
	Failed      bool
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type apiTransaction struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	IsError     string `json:"isError"`
}

// NewClient creates an explorer client from configuration
func NewClient(cfg *config.ExplorerConfig) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	return &Client{
		enabled: cfg.Enabled,
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Enabled reports whether the integration is configured on.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Balance returns the native balance of address at the latest block.
func (c *Client) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	raw, err := c.get(ctx, url.Values{
		"module":  {"account"},
		"action":  {"balance"},
		"address": {address.Hex()},
		"tag":     {"latest"},
	})
	if err != nil {
		return nil, err
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode balance: %w", err)
	}
	balance, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q", s)
	}
	return balance, nil
}

// Transactions returns a page of normal transactions of address, newest first.
func (c *Client) Transactions(ctx context.Context, address common.Address, page, offset int) ([]Transaction, error) {
	raw, err := c.get(ctx, url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {address.Hex()},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {strconv.Itoa(page)},
		"offset":     {strconv.Itoa(offset)},
		"sort":       {"desc"},
	})
	if err != nil {
		return nil, err
	}

	var items []apiTransaction
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	txs := make([]Transaction, 0, len(items))
	for _, it := range items {
		block, err := strconv.ParseUint(it.BlockNumber, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid block number %q: %w", it.BlockNumber, err)
		}
		ts, err := strconv.ParseInt(it.TimeStamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", it.TimeStamp, err)
		}
		value, ok := new(big.Int).SetString(it.Value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid value %q", it.Value)
		}
		txs = append(txs, Transaction{
			Hash:        common.HexToHash(it.Hash),
			BlockNumber: block,
			Timestamp:   time.Unix(ts, 0).UTC(),
			From:        common.HexToAddress(it.From),
			To:          common.HexToAddress(it.To),
			Value:       value,
			Failed:      it.IsError == "1",
		})
	}
	return txs, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("explorer %s failed: status=%d", params.Get("action"), resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}

	if body.Status != "1" {
		// An empty account history is reported as a failure with an empty result list.
		if strings.HasPrefix(body.Message, "No transactions found") {
			return json.RawMessage("[]"), nil
		}
		var detail string
		_ = json.Unmarshal(body.Result, &detail)
		return nil, fmt.Errorf("explorer %s failed: %s %s", params.Get("action"), body.Message, detail)
	}
	return body.Result, nil
}
