// Package signing produces and checks authorization signatures. Values made
// without a wallet key are labelled simulated and never verify.
package signing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/AlexZinkM/phantom-wallet/internal/provider"

	"github.com/gagliardetto/solana-go"
)

// SchemeSimulated marks a hash-derived stand-in that is not a cryptographic signature
const SchemeSimulated = "simulated"

// ErrNotVerifiable is returned when a signature cannot be checked cryptographically
var ErrNotVerifiable = errors.New("signature is not verifiable")

// Signature is an authorization token together with how it was produced
type Signature struct {
	Value     string
	Scheme    string
	Simulated bool
}

// Signer signs authorization messages on behalf of an account
type Signer interface {
	Sign(ctx context.Context, account, message string) (Signature, error)
}

// ProviderSigner signs through the wallet's message-signing capability
type ProviderSigner struct {
	signer provider.MessageSigner
}

// NewProviderSigner wraps a signing-capable provider
func NewProviderSigner(signer provider.MessageSigner) *ProviderSigner {
	return &ProviderSigner{signer: signer}
}

// Sign implements Signer
func (s *ProviderSigner) Sign(ctx context.Context, account, message string) (Signature, error) {
	signed, err := s.signer.SignMessage(ctx, account, message)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Value: signed.Value, Scheme: signed.Scheme}, nil
}

// SimulatedSigner produces labelled stand-in signatures after an artificial delay
type SimulatedSigner struct {
	delay time.Duration
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSimulatedSigner creates a simulated signer that waits delay before answering
func NewSimulatedSigner(delay time.Duration) *SimulatedSigner {
	return &SimulatedSigner{delay: delay, now: time.Now, sleep: Sleep}
}

// Sign implements Signer
func (s *SimulatedSigner) Sign(ctx context.Context, account, message string) (Signature, error) {
	if err := s.sleep(ctx, s.delay); err != nil {
		return Signature{}, err
	}
	return Simulate(message, account, s.now()), nil
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Simulate derives a signature-shaped string from message, account and ts.
// Collisions are possible; the result carries no authenticity.
func Simulate(message, account string, ts time.Time) Signature {
	ms := ts.UnixMilli()
	h := stringHash(message + account + strconv.FormatInt(ms, 10))

	acct := account
	if len(acct) >= 10 {
		acct = acct[2:10]
	} else if len(acct) > 2 {
		acct = acct[2:]
	}

	tail := h
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}

	return Signature{
		Value:     fmt.Sprintf("0x%s%s%x%s", h, acct, ms, tail),
		Scheme:    SchemeSimulated,
		Simulated: true,
	}
}

// stringHash is the 32-bit multiplicative string hash over UTF-16 code units, as abs hex
func stringHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

var (
	hexPattern          = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	personalSignPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{130}$`)
)

// WellFormed reports whether the value has the shape its scheme produces
func WellFormed(sig Signature) bool {
	switch sig.Scheme {
	case SchemeSimulated:
		return hexPattern.MatchString(sig.Value)
	case provider.SchemePersonalSign:
		return personalSignPattern.MatchString(sig.Value)
	case provider.SchemeEd25519:
		_, err := solana.SignatureFromBase58(sig.Value)
		return err == nil
	}
	return false
}

// Verify checks sig over message against the account's public key.
// Only ed25519 signatures can be checked; other schemes return ErrNotVerifiable.
func Verify(sig Signature, account, message string) (bool, error) {
	if sig.Simulated || sig.Scheme != provider.SchemeEd25519 {
		return false, ErrNotVerifiable
	}

	pub, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return false, fmt.Errorf("invalid account public key: %w", err)
	}
	s, err := solana.SignatureFromBase58(sig.Value)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	return s.Verify(pub, []byte(message)), nil
}
