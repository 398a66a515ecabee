package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient   *rpc.Client
	ownerPubkey solana.PublicKey // address passed to NewSolanaClient
}

// NewSolanaClient creates a new Solana client for the given address.
func NewSolanaClient(rpcURL, address string) (*SolanaClient, error) {
	ownerPubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana address: %w", err)
	}

	return &SolanaClient{
		rpcClient:   rpc.New(rpcURL),
		ownerPubkey: ownerPubkey,
	}, nil
}

// Owner returns the address the client was created for
func (c *SolanaClient) Owner() solana.PublicKey {
	return c.ownerPubkey
}

// GetBalance gets SOL balance in lamports for the client's address
func (c *SolanaClient) GetBalance(ctx context.Context) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, c.ownerPubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// CreateSOLTransaction creates, signs and sends a SOL transfer transaction
// privateKeyBytes must be full 64-byte Solana private key (caller should zero it after use)
func (c *SolanaClient) CreateSOLTransaction(ctx context.Context, toAddress string, privateKeyBytes []byte, lamports uint64) (string, error) {
	toPubkey, err := solana.PublicKeyFromBase58(toAddress)
	if err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}

	if len(privateKeyBytes) != 64 {
		return "", fmt.Errorf("invalid private key length: expected 64 bytes")
	}
	wallet := solana.PrivateKey(privateKeyBytes)

	if !wallet.PublicKey().Equals(c.ownerPubkey) {
		return "", fmt.Errorf("private key does not match our address")
	}

	if lamports == 0 {
		return "", fmt.Errorf("amount must be greater than zero")
	}

	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	transferInstruction := system.NewTransferInstruction(
		lamports,
		c.ownerPubkey,
		toPubkey,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.ownerPubkey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if wallet.PublicKey().Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation befor node
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}
