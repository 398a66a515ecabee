package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/client"
	"github.com/AlexZinkM/phantom-wallet/internal/common"
	"github.com/AlexZinkM/phantom-wallet/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// SolanaRPC is the chain access the keystore provider needs
type SolanaRPC interface {
	GetBalance(ctx context.Context) (uint64, error)
	CreateSOLTransaction(ctx context.Context, toAddress string, privateKeyBytes []byte, lamports uint64) (string, error)
}

// KeystoreConfig configures a keystore-backed provider
type KeystoreConfig struct {
	FilePath string
	Password []byte // caller should zero it after OpenKeystore returns
	RPCURL   string
	ChainID  string
	Cooldown time.Duration
}

// KeystoreProvider is a local wallet backed by an encrypted .cwt keystore.
// Messages are signed with the account's ed25519 key.
type KeystoreProvider struct {
	info     Info
	chainID  string
	rpc      SolanaRPC
	cooldown time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	key      solana.PrivateKey
	lastSend time.Time
	events   emitter
}

// OpenKeystore decrypts the keystore file and returns a provider for its account
func OpenKeystore(cfg KeystoreConfig, logger *zap.Logger) (*KeystoreProvider, error) {
	file, data, err := crypto.DecryptKeystore(cfg.FilePath, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	rpc, err := client.NewSolanaClient(cfg.RPCURL, file.Address)
	if err != nil {
		clear(data.PrivateKey)
		return nil, err
	}

	p, err := NewKeystoreProvider(data.PrivateKey, cfg.ChainID, rpc, cfg.Cooldown, logger)
	clear(data.PrivateKey)
	return p, err
}

// NewKeystoreProvider creates a provider from a 64-byte ed25519 private key.
// The key is copied.
func NewKeystoreProvider(privateKey []byte, chainID string, rpc SolanaRPC, cooldown time.Duration, logger *zap.Logger) (*KeystoreProvider, error) {
	if len(privateKey) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes")
	}
	key := make(solana.PrivateKey, 64)
	copy(key, privateKey)

	address := key.PublicKey().String()
	id := sha256.Sum256([]byte("keystore:" + address))

	return &KeystoreProvider{
		info: Info{
			UUID: hex.EncodeToString(id[:16]),
			Name: "Local Keystore",
			Icon: "◎",
			RDNS: "local.keystore",
		},
		chainID:  chainID,
		rpc:      rpc,
		cooldown: cooldown,
		logger:   logger.Named("keystore"),
		now:      time.Now,
		key:      key,
	}, nil
}

// Info implements Provider
func (p *KeystoreProvider) Info() Info {
	return p.info
}

// Native implements Provider
func (p *KeystoreProvider) Native() NativeCurrency {
	return NativeCurrency{Symbol: "SOL", Name: "Solana", Decimals: common.SOLDecimals, Logo: "◎"}
}

// Address returns the account address, or "" once locked
func (p *KeystoreProvider) Address() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == nil {
		return ""
	}
	return p.key.PublicKey().String()
}

// RequestAccounts implements Provider. A local keystore never prompts.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	address := p.Address()
	if address == "" {
		return nil, &RPCError{Code: CodeUnauthorized, Message: "keystore is locked"}
	}
	return []string{address}, nil
}

// Accounts implements Provider
func (p *KeystoreProvider) Accounts(ctx context.Context) ([]string, error) {
	address := p.Address()
	if address == "" {
		return []string{}, nil
	}
	return []string{address}, nil
}

// ChainID implements Provider
func (p *KeystoreProvider) ChainID(ctx context.Context) (string, error) {
	return p.chainID, nil
}

// Balance implements Provider. The balance is in lamports.
func (p *KeystoreProvider) Balance(ctx context.Context, account string) (*big.Int, error) {
	if err := p.checkAccount(account); err != nil {
		return nil, err
	}
	lamports, err := p.rpc.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(lamports), nil
}

// SignMessage implements MessageSigner with an ed25519 signature (base58)
func (p *KeystoreProvider) SignMessage(ctx context.Context, account, message string) (SignedMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == nil {
		return SignedMessage{}, &RPCError{Code: CodeUnauthorized, Message: "keystore is locked"}
	}
	if p.key.PublicKey().String() != account {
		return SignedMessage{}, &RPCError{Code: CodeUnauthorized, Message: "unknown account"}
	}

	sig, err := p.key.Sign([]byte(message))
	if err != nil {
		return SignedMessage{}, fmt.Errorf("failed to sign message: %w", err)
	}
	return SignedMessage{Value: sig.String(), Scheme: SchemeEd25519}, nil
}

// SendTransaction implements Provider with a SOL transfer.
// Transfers are limited to one per cooldown period.
func (p *KeystoreProvider) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	if tx.Value == nil || tx.Value.Sign() <= 0 {
		return "", fmt.Errorf("amount must be greater than zero")
	}
	if !tx.Value.IsUint64() {
		return "", fmt.Errorf("amount out of range")
	}

	p.mu.Lock()
	if p.key == nil {
		p.mu.Unlock()
		return "", &RPCError{Code: CodeUnauthorized, Message: "keystore is locked"}
	}
	if tx.From != "" && tx.From != p.key.PublicKey().String() {
		p.mu.Unlock()
		return "", &RPCError{Code: CodeUnauthorized, Message: "unknown account"}
	}
	now := p.now()
	if !p.lastSend.IsZero() {
		if wait := p.cooldown - now.Sub(p.lastSend); wait > 0 {
			p.mu.Unlock()
			return "", fmt.Errorf("send cooldown active, retry in %s", wait.Round(time.Second))
		}
	}
	p.lastSend = now
	key := make([]byte, len(p.key))
	copy(key, p.key)
	p.mu.Unlock()
	defer clear(key)

	txID, err := p.rpc.CreateSOLTransaction(ctx, tx.To, key, tx.Value.Uint64())
	if err != nil {
		// a failed send does not start the cooldown
		p.mu.Lock()
		p.lastSend = time.Time{}
		p.mu.Unlock()
		return "", err
	}

	p.logger.Info("transfer sent", zap.String("tx_id", txID))
	return txID, nil
}

// Subscribe implements Provider
func (p *KeystoreProvider) Subscribe(fn func(Event)) func() {
	return p.events.subscribe(fn)
}

// Lock zeroes the key and reports the account as removed
func (p *KeystoreProvider) Lock() {
	p.mu.Lock()
	if p.key == nil {
		p.mu.Unlock()
		return
	}
	clear(p.key)
	p.key = nil
	p.mu.Unlock()

	p.events.emit(Event{Type: EventAccountsChanged, Accounts: []string{}})
}

func (p *KeystoreProvider) checkAccount(account string) error {
	address := p.Address()
	if address == "" {
		return &RPCError{Code: CodeUnauthorized, Message: "keystore is locked"}
	}
	if account != address {
		return &RPCError{Code: CodeUnauthorized, Message: "unknown account"}
	}
	return nil
}
