package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"
)

// Client talks JSON-RPC to a certificate ledger node over HTTP and adapts it
// to the EventSource/WriteSource interfaces. Live "subscriptions" are driven
// by a cron poll of the chain head; each new block fans out to block
// listeners, and new logs fan out to event listeners.
type Client struct {
	http     *resty.Client
	contract string
	actor    string

	mu        sync.Mutex
	nextSubID int
	eventSubs map[string]map[int]func(RawEvent)
	blockSubs map[int]func(int64)
	lastBlock int64

	cron    *cron.Cron
	entryID cron.EntryID
}

// NewClient creates a ledger client for the given RPC endpoint and registry
// contract. actor is the wallet address write calls are attributed to.
func NewClient(rpcURL, contract, actor string) *Client {
	return &Client{
		http:      resty.New().SetBaseURL(rpcURL).SetTimeout(30 * time.Second),
		contract:  contract,
		actor:     actor,
		eventSubs: make(map[string]map[int]func(RawEvent)),
		blockSubs: make(map[int]func(int64)),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	var rpcResp rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}).
		SetResult(&rpcResp).
		Post("/")
	if err != nil {
		return fmt.Errorf("ledger rpc %s: %v", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("ledger rpc %s: http %d", method, resp.StatusCode())
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledger rpc %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("ledger rpc %s: decode result: %v", method, err)
		}
	}
	return nil
}

// StartPolling begins the chain-head poll that drives live subscriptions.
func (c *Client) StartPolling(intervalSecs int) error {
	c.cron = cron.New(cron.WithSeconds())
	id, err := c.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSecs), c.poll)
	if err != nil {
		return err
	}
	c.entryID = id
	c.cron.Start()
	return nil
}

// StopPolling halts the poll loop. Safe to call when polling never started.
func (c *Client) StopPolling() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

func (c *Client) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	head, err := c.LatestBlock(ctx)
	if err != nil {
		log.Printf("[LEDGER-POLL] head fetch failed: %v", err)
		return
	}

	c.mu.Lock()
	from := c.lastBlock + 1
	if c.lastBlock == 0 {
		from = head // first poll only establishes the baseline
	}
	c.lastBlock = head
	names := make([]string, 0, len(c.eventSubs))
	for name := range c.eventSubs {
		names = append(names, name)
	}
	blockHandlers := make([]func(int64), 0, len(c.blockSubs))
	for _, h := range c.blockSubs {
		blockHandlers = append(blockHandlers, h)
	}
	c.mu.Unlock()

	for n := from; n <= head; n++ {
		for _, h := range blockHandlers {
			h(n)
		}
	}
	if from > head {
		return
	}

	for _, name := range names {
		events, err := c.QueryFilter(ctx, name, from, head)
		if err != nil {
			log.Printf("[LEDGER-POLL] log fetch for %s failed: %v", name, err)
			continue
		}
		c.mu.Lock()
		handlers := make([]func(RawEvent), 0, len(c.eventSubs[name]))
		for _, h := range c.eventSubs[name] {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, evt := range events {
			for _, h := range handlers {
				h(evt)
			}
		}
	}
}

type clientSub struct {
	once   sync.Once
	remove func()
}

func (s *clientSub) Unsubscribe() { s.once.Do(s.remove) }

// Subscribe installs a listener for the named contract event.
func (c *Client) Subscribe(name string, handler func(RawEvent)) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	if c.eventSubs[name] == nil {
		c.eventSubs[name] = make(map[int]func(RawEvent))
	}
	c.eventSubs[name][id] = handler
	return &clientSub{remove: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.eventSubs[name], id)
	}}, nil
}

// SubscribeBlocks installs a heartbeat listener invoked per new block.
func (c *Client) SubscribeBlocks(handler func(int64)) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.blockSubs[id] = handler
	return &clientSub{remove: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.blockSubs, id)
	}}, nil
}

// QueryFilter returns historical events for name over [fromBlock, toBlock].
func (c *Client) QueryFilter(ctx context.Context, name string, fromBlock, toBlock int64) ([]RawEvent, error) {
	var events []RawEvent
	err := c.call(ctx, "cert_getLogs", &events, c.contract, name, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetBlock returns block metadata for the given number.
func (c *Client) GetBlock(ctx context.Context, number int64) (Block, error) {
	var block Block
	err := c.call(ctx, "cert_getBlock", &block, number)
	return block, err
}

// LatestBlock returns the current chain head number.
func (c *Client) LatestBlock(ctx context.Context) (int64, error) {
	var head int64
	err := c.call(ctx, "cert_blockNumber", &head)
	return head, err
}

// SubmitBurnRequest asks the contract to open a timelocked burn request.
// Resolves once the transaction confirms.
func (c *Client) SubmitBurnRequest(ctx context.Context, certificateID uint, reason string) error {
	return c.call(ctx, "cert_submitBurnRequest", nil, c.contract, certificateID, reason, c.actor)
}

// CancelBurnRequest withdraws a pending burn request.
func (c *Client) CancelBurnRequest(ctx context.Context, certificateID uint) error {
	return c.call(ctx, "cert_cancelBurnRequest", nil, c.contract, certificateID, c.actor)
}

// DirectBurn burns a certificate immediately, bypassing the timelock.
func (c *Client) DirectBurn(ctx context.Context, certificateID uint, reason string) error {
	return c.call(ctx, "cert_directBurn", nil, c.contract, certificateID, reason, c.actor)
}

// IsPrivilegedFor reports whether actor may direct-burn the certificate.
func (c *Client) IsPrivilegedFor(ctx context.Context, certificateID uint, actor string) (bool, error) {
	var privileged bool
	err := c.call(ctx, "cert_isPrivileged", &privileged, c.contract, certificateID, actor)
	return privileged, err
}
