package provider

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/common"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Bridge frame types
const (
	frameRequestProvider  = "requestProvider"
	frameAnnounceProvider = "announceProvider"
	frameRequest          = "request"
	frameResponse         = "response"
	frameEvent            = "event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrBridgeClosed is returned for requests on a disconnected bridge wallet
var ErrBridgeClosed = errors.New("bridge connection closed")

type frame struct {
	Type   string          `json:"type"`
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params []any           `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
	Info   *Info           `json:"info,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Hub accepts websocket connections from external wallets and announces each
// of them to the registry as a BridgeProvider.
type Hub struct {
	registry *Registry
	native   NativeCurrency
	timeout  time.Duration
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*BridgeProvider]struct{}
}

// NewHub creates a hub and registers it as an announcer with registry
func NewHub(registry *Registry, native NativeCurrency, timeout time.Duration, logger *zap.Logger) *Hub {
	h := &Hub{
		registry: registry,
		native:   native,
		timeout:  timeout,
		logger:   logger.Named("bridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*BridgeProvider]struct{}),
	}
	registry.OnRequest(h.requestProviders)
	return h
}

// ServeHTTP upgrades the request and serves the wallet until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	p := &BridgeProvider{
		conn:    conn,
		native:  h.native,
		timeout: h.timeout,
		logger:  h.logger,
		pending: make(map[uint64]chan frame),
		closed:  make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[p] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("wallet connected", zap.String("remote", r.RemoteAddr))

	go p.pingLoop()
	p.readLoop(h.registry)

	h.mu.Lock()
	delete(h.conns, p)
	h.mu.Unlock()
	h.logger.Info("wallet disconnected", zap.String("provider", p.Info().Name))
}

// Count returns the number of connected wallets
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every wallet on shutdown. Subscribers are not told the
// accounts went away, so a persisted session survives the restart.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*BridgeProvider, 0, len(h.conns))
	for p := range h.conns {
		conns = append(conns, p)
	}
	h.mu.Unlock()

	for _, p := range conns {
		p.shutdown(false)
	}
}

func (h *Hub) requestProviders() {
	h.mu.Lock()
	conns := make([]*BridgeProvider, 0, len(h.conns))
	for p := range h.conns {
		conns = append(conns, p)
	}
	h.mu.Unlock()

	for _, p := range conns {
		if err := p.write(frame{Type: frameRequestProvider}); err != nil {
			h.logger.Debug("failed to send discovery request", zap.Error(err))
		}
	}
}

// BridgeProvider is an external wallet connected over the websocket bridge.
// Requests are EIP-1193 style JSON-RPC calls answered by the wallet.
type BridgeProvider struct {
	conn    *websocket.Conn
	native  NativeCurrency
	timeout time.Duration
	logger  *zap.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	info    Info
	pending map[uint64]chan frame

	closeOnce sync.Once
	closed    chan struct{}
	events    emitter
}

// Info implements Provider
func (p *BridgeProvider) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// Native implements Provider
func (p *BridgeProvider) Native() NativeCurrency {
	return p.native
}

// RequestAccounts implements Provider
func (p *BridgeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_requestAccounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Accounts implements Provider
func (p *BridgeProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID implements Provider
func (p *BridgeProvider) ChainID(ctx context.Context) (string, error) {
	var chainID string
	if err := p.call(ctx, "eth_chainId", nil, &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

// Balance implements Provider. The wallet answers a hex quantity in wei.
func (p *BridgeProvider) Balance(ctx context.Context, account string) (*big.Int, error) {
	var quantity string
	if err := p.call(ctx, "eth_getBalance", []any{account, "latest"}, &quantity); err != nil {
		return nil, err
	}
	return common.HexToBigInt(quantity)
}

// SignMessage implements MessageSigner via personal_sign
func (p *BridgeProvider) SignMessage(ctx context.Context, account, message string) (SignedMessage, error) {
	var sig string
	params := []any{"0x" + hex.EncodeToString([]byte(message)), account}
	if err := p.call(ctx, "personal_sign", params, &sig); err != nil {
		return SignedMessage{}, err
	}
	return SignedMessage{Value: sig, Scheme: SchemePersonalSign}, nil
}

// SendTransaction implements Provider via eth_sendTransaction
func (p *BridgeProvider) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	req := map[string]string{
		"from":  tx.From,
		"to":    tx.To,
		"value": common.BigIntToHex(tx.Value),
	}
	if tx.Memo != "" {
		req["data"] = "0x" + hex.EncodeToString([]byte(tx.Memo))
	}

	var hash string
	if err := p.call(ctx, "eth_sendTransaction", []any{req}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// Subscribe implements Provider
func (p *BridgeProvider) Subscribe(fn func(Event)) func() {
	return p.events.subscribe(fn)
}

func (p *BridgeProvider) call(ctx context.Context, method string, params []any, out any) error {
	id := p.nextID.Add(1)
	ch := make(chan frame, 1)

	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.write(frame{Type: frameRequest, ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%s timed out after %s", method, p.timeout)
	case <-p.closed:
		return ErrBridgeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *BridgeProvider) write(f frame) error {
	select {
	case <-p.closed:
		return ErrBridgeClosed
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(f)
}

func (p *BridgeProvider) readLoop(registry *Registry) {
	defer p.close()

	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f frame
		if err := p.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Warn("bridge read failed", zap.Error(err))
			}
			return
		}

		switch f.Type {
		case frameAnnounceProvider:
			if f.Info == nil || f.Info.UUID == "" {
				p.logger.Debug("ignoring announcement without uuid")
				continue
			}
			p.mu.Lock()
			p.info = *f.Info
			p.mu.Unlock()
			registry.Announce(Detail{Info: *f.Info, Provider: p})
		case frameResponse:
			p.mu.Lock()
			ch, ok := p.pending[f.ID]
			p.mu.Unlock()
			if ok {
				select {
				case ch <- f:
				default:
				}
			}
		case frameEvent:
			p.handleEvent(f)
		default:
			p.logger.Debug("unknown bridge frame", zap.String("type", f.Type))
		}
	}
}

func (p *BridgeProvider) handleEvent(f frame) {
	switch EventType(f.Event) {
	case EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(f.Data, &accounts); err != nil {
			p.logger.Debug("malformed accountsChanged event", zap.Error(err))
			return
		}
		p.events.emit(Event{Type: EventAccountsChanged, Accounts: accounts})
	case EventChainChanged:
		var chainID string
		if err := json.Unmarshal(f.Data, &chainID); err != nil {
			p.logger.Debug("malformed chainChanged event", zap.Error(err))
			return
		}
		p.events.emit(Event{Type: EventChainChanged, ChainID: chainID})
	}
}

func (p *BridgeProvider) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.writeMu.Lock()
			err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			p.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-p.closed:
			return
		}
	}
}

// close tears the connection down once; subscribers see the account removed
func (p *BridgeProvider) close() {
	p.shutdown(true)
}

func (p *BridgeProvider) shutdown(notify bool) {
	p.closeOnce.Do(func() {
		close(p.closed)
		_ = p.conn.Close()
		if notify {
			p.events.emit(Event{Type: EventAccountsChanged, Accounts: []string{}})
		}
	})
}
