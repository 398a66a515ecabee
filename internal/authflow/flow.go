// Package authflow gates every simulated operation behind an authorization
// signature: build the message, sign, record, then run the effect and pay the reward.
package authflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signatures"
	"github.com/AlexZinkM/phantom-wallet/internal/signing"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Wallet is the session capability the flow needs
type Wallet interface {
	Account() (string, error)
	SignMessage(ctx context.Context, message string) (signing.Signature, string, error)
	SyncRewardBalance(ctx context.Context) error
}

// Config tunes the flow
type Config struct {
	StepDelay              time.Duration
	FailureRate            float64
	StressFailureRate      float64
	RecordFailedSignatures bool
	// AllowRepeat lists the operation types that may run again after completing
	AllowRepeat []model.OperationType
}

// Flow runs authorization attempts. At most one attempt runs per account at a time.
type Flow struct {
	cfg    Config
	wallet Wallet
	log    *signatures.Log
	ledger *rewards.Ledger
	store  storage.Store
	logger *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
	newID func() string

	mu   sync.Mutex
	busy map[string]struct{}
}

// New creates a flow
func New(cfg Config, wallet Wallet, log *signatures.Log, ledger *rewards.Ledger, store storage.Store, logger *zap.Logger) *Flow {
	return &Flow{
		cfg:    cfg,
		wallet: wallet,
		log:    log,
		ledger: ledger,
		store:  store,
		logger: logger.Named("authflow"),
		now:    time.Now,
		sleep:  signing.Sleep,
		rand:   rand.Float64,
		newID:  uuid.NewString,
		busy:   make(map[string]struct{}),
	}
}

// Attempt is one pass through the authorization state machine
type Attempt struct {
	ID          string
	Descriptor  model.OperationDescriptor
	Account     string
	State       model.AttemptState
	Transitions []model.AttemptState
	Message     string
	Signature   signing.Signature
	Record      model.SignatureRecord
	TxHash      string
	Effect      *EffectResult
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (a *Attempt) transition(s model.AttemptState) {
	a.State = s
	a.Transitions = append(a.Transitions, s)
}

// Response converts the attempt to its API form
func (a *Attempt) Response() model.AttemptResponse {
	resp := model.AttemptResponse{
		ID:          a.ID,
		Operation:   a.Descriptor.Type,
		State:       a.State,
		Transitions: append([]model.AttemptState{}, a.Transitions...),
		SignatureID: a.Record.ID,
		Signature:   a.Signature.Value,
		Scheme:      a.Signature.Scheme,
		Simulated:   a.Signature.Simulated,
		TxHash:      a.TxHash,
		Reward:      decimal.Zero.String(),
		Bonus:       decimal.Zero.String(),
		Steps:       []string{},
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
	}
	if a.Effect != nil {
		resp.Steps = append(resp.Steps, a.Effect.Steps...)
		if a.State == model.AttemptCompleted {
			resp.Reward = a.Effect.Reward.String()
			resp.Bonus = a.Effect.Bonus.String()
			resp.Balance = a.Effect.Balance.String()
		}
	}
	if a.Err != nil {
		resp.Error = a.Err.Error()
	}
	return resp
}

// RequestAuthorization signs desc with the connected account and, only when
// signing succeeds, executes the operation effect. The returned attempt is in
// a terminal state; the error is non-nil unless it is Completed.
func (f *Flow) RequestAuthorization(ctx context.Context, desc model.OperationDescriptor) (*Attempt, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	account, err := f.wallet.Account()
	if err != nil {
		return nil, err
	}
	if !f.acquire(account) {
		return nil, ErrOperationInProgress
	}
	defer f.release(account)

	if !f.repeatAllowed(desc.Type) {
		st, err := f.readFlags(ctx, account)
		if err != nil {
			return nil, err
		}
		if st.Completed[desc.Type] {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, desc.Type)
		}
	}

	a := f.run(ctx, account, desc, f.cfg.FailureRate)
	return a, a.Err
}

func (f *Flow) run(ctx context.Context, account string, desc model.OperationDescriptor, failureRate float64) *Attempt {
	a := &Attempt{
		ID:          f.newID(),
		Descriptor:  desc,
		Account:     account,
		StartedAt:   f.now().UTC(),
		Transitions: []model.AttemptState{model.AttemptIdle},
		State:       model.AttemptIdle,
	}
	logger := f.logger.With(
		zap.String("attempt_id", a.ID),
		zap.String("operation", string(desc.Type)),
		logging.Account(account))
	defer func() {
		a.FinishedAt = f.now().UTC()
	}()

	if err := f.markActivity(ctx, account); err != nil {
		logger.Warn("failed to record activity", zap.Error(err))
	}

	a.transition(model.AttemptAwaitingSignature)
	message, err := BuildMessage(desc, account, a.StartedAt)
	if err != nil {
		a.transition(model.AttemptSignatureFailed)
		a.Err = err
		return a
	}
	a.Message = message

	sig, _, err := f.wallet.SignMessage(ctx, message)
	if err != nil {
		a.transition(model.AttemptSignatureFailed)
		a.Err = err
		logger.Warn("authorization signature failed", zap.Error(err))
		if f.cfg.RecordFailedSignatures {
			rec, recErr := f.log.Append(ctx, model.SignatureRecord{
				Operation: desc.Type,
				Account:   account,
				Message:   message,
				Timestamp: a.StartedAt,
				Status:    model.SignatureFailed,
			})
			if recErr != nil {
				logger.Warn("failed to record failed signature", zap.Error(recErr))
			}
			a.Record = rec
		}
		return a
	}
	a.Signature = sig

	rec, err := f.log.Append(ctx, model.SignatureRecord{
		Operation: desc.Type,
		Signature: sig.Value,
		Scheme:    sig.Scheme,
		Simulated: sig.Simulated,
		Account:   account,
		Message:   message,
		Timestamp: a.StartedAt,
		Status:    model.SignaturePending,
	})
	if err != nil {
		// an unrecorded signature must not authorize anything
		a.transition(model.AttemptSignatureFailed)
		a.Err = fmt.Errorf("failed to record signature: %w", err)
		return a
	}
	a.Record = rec
	a.transition(model.AttemptSigned)
	logger.Info("operation authorized", zap.String("scheme", sig.Scheme), zap.Bool("simulated", sig.Simulated))

	a.transition(model.AttemptExecuting)
	effect, err := f.ExecuteEffect(ctx, account, desc.Type, failureRate)
	a.Effect = effect
	if err != nil {
		a.transition(model.AttemptExecutionFailed)
		a.Err = err
		f.settle(ctx, a, model.SignatureFailed, "", logger)
		logger.Warn("operation failed", zap.Error(err))
		return a
	}

	a.TxHash = simulatedTxHash(sig.Value, a.ID)
	f.settle(ctx, a, model.SignatureVerified, a.TxHash, logger)
	a.transition(model.AttemptCompleted)

	if err := f.wallet.SyncRewardBalance(ctx); err != nil {
		logger.Warn("failed to sync reward balance", zap.Error(err))
	}
	logger.Info("operation completed",
		zap.String("reward", effect.Reward.String()),
		zap.String("bonus", effect.Bonus.String()))
	return a
}

func (f *Flow) settle(ctx context.Context, a *Attempt, status model.SignatureStatus, txHash string, logger *zap.Logger) {
	if err := f.log.SetStatus(ctx, a.Account, a.Record.ID, status, txHash); err != nil {
		logger.Warn("failed to settle signature record", zap.Error(err))
		return
	}
	a.Record.Status = status
	a.Record.TxHash = txHash
}

func (f *Flow) repeatAllowed(t model.OperationType) bool {
	for _, allowed := range f.cfg.AllowRepeat {
		if allowed == t {
			return true
		}
	}
	return false
}

func (f *Flow) acquire(account string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.busy[account]; ok {
		return false
	}
	f.busy[account] = struct{}{}
	return true
}

func (f *Flow) release(account string) {
	f.mu.Lock()
	delete(f.busy, account)
	f.mu.Unlock()
}

// simulatedTxHash derives a stable transaction id for a completed simulated operation
func simulatedTxHash(signature, attemptID string) string {
	sum := sha256.Sum256([]byte(signature + "|" + attemptID))
	return "0x" + hex.EncodeToString(sum[:])
}

// IsClientError reports whether err is caused by the request rather than the system
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDescriptor) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrOperationInProgress)
}
