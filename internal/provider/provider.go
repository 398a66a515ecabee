// Package provider defines the wallet provider contract, the announce/request
// discovery handshake and the concrete providers the service can talk to.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// Provider RPC error codes (EIP-1193)
const (
	CodeUserRejected = 4001
	CodeUnauthorized = 4100
	CodeUnsupported  = 4200
	CodeDisconnected = 4900

	// JSON-RPC method not found, returned by wallets that lack personal_sign
	CodeMethodNotFound = -32601
)

// Info is what a provider announces about itself during discovery
type Info struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	RDNS string `json:"rdns"`
}

// Detail pairs an announcement with the provider handle
type Detail struct {
	Info     Info
	Provider Provider
}

// NativeCurrency describes the chain's native asset
type NativeCurrency struct {
	Symbol   string
	Name     string
	Decimals int32
	Logo     string
}

// TxRequest is a native-asset transfer. Value is in base units.
type TxRequest struct {
	From  string
	To    string
	Value *big.Int
	Memo  string
}

// SignedMessage is a provider signature over a message
type SignedMessage struct {
	Value  string
	Scheme string
}

// Signature schemes produced by providers
const (
	SchemeEd25519      = "ed25519"
	SchemePersonalSign = "personal_sign"
)

// EventType names provider events
type EventType string

const (
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
)

// Event is a provider notification. Accounts is set for accountsChanged, ChainID for chainChanged.
type Event struct {
	Type     EventType
	Accounts []string
	ChainID  string
}

// Provider is a wallet exposing a request-based RPC surface and an event surface
type Provider interface {
	Info() Info
	Native() NativeCurrency
	RequestAccounts(ctx context.Context) ([]string, error)
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (string, error)
	// Balance returns the native balance of account in base units
	Balance(ctx context.Context, account string) (*big.Int, error)
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)
	// Subscribe registers fn for provider events and returns a function that removes it
	Subscribe(fn func(Event)) (unsubscribe func())
}

// MessageSigner is the optional message-signing capability of a provider
type MessageSigner interface {
	SignMessage(ctx context.Context, account, message string) (SignedMessage, error)
}

// RPCError is an error reported by a provider
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsUserRejected checks if the user declined the provider request
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}

// IsUnsupported checks if the provider does not support the requested method
func IsUnsupported(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == CodeUnsupported || rpcErr.Code == CodeMethodNotFound
}

// emitter fans provider events out to subscribers
type emitter struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func(Event))
	}
	id := e.next
	e.next++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
