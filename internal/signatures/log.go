// Package signatures keeps the append-only per-account log of authorization signatures.
package signatures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/signing"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "phan_signatures_"

// clockSkew is how far in the future a record timestamp may lie before it is rejected
const clockSkew = 5 * time.Minute

var (
	ErrNotFound          = errors.New("signature record not found")
	ErrInvalidTransition = errors.New("invalid signature status transition")
)

// Log is the persisted signature log
type Log struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLog creates a signature log over store
func NewLog(store storage.Store, logger *zap.Logger) *Log {
	return &Log{store: store, logger: logger.Named("signatures"), now: time.Now}
}

// Append adds rec to its account's log. A missing id, timestamp or status is filled in.
func (l *Log) Append(ctx context.Context, rec model.SignatureRecord) (model.SignatureRecord, error) {
	if rec.Account == "" {
		return model.SignatureRecord{}, errors.New("signature record requires an account")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	if rec.Status == "" {
		rec.Status = model.SignaturePending
	}

	err := storage.UpdateJSON(ctx, l.store, keyPrefix+rec.Account, l.malformed(rec.Account),
		func(cur []model.SignatureRecord, _ bool) ([]model.SignatureRecord, error) {
			return append(cur, rec), nil
		})
	if err != nil {
		return model.SignatureRecord{}, fmt.Errorf("failed to append signature: %w", err)
	}

	l.logger.Debug("signature recorded",
		logging.Account(rec.Account),
		zap.String("id", rec.ID),
		zap.String("operation", string(rec.Operation)),
		zap.String("status", string(rec.Status)))
	return rec, nil
}

// SetStatus moves a pending record to verified or failed. txHash is stored when not empty.
func (l *Log) SetStatus(ctx context.Context, account, id string, status model.SignatureStatus, txHash string) error {
	if status != model.SignatureVerified && status != model.SignatureFailed {
		return fmt.Errorf("%w: to %s", ErrInvalidTransition, status)
	}

	err := storage.UpdateJSON(ctx, l.store, keyPrefix+account, l.malformed(account),
		func(cur []model.SignatureRecord, _ bool) ([]model.SignatureRecord, error) {
			for i := range cur {
				if cur[i].ID != id {
					continue
				}
				if cur[i].Status != model.SignaturePending {
					return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cur[i].Status, status)
				}
				cur[i].Status = status
				if txHash != "" {
					cur[i].TxHash = txHash
				}
				return cur, nil
			}
			return nil, ErrNotFound
		})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("failed to update signature: %w", err)
	}
	return nil
}

// List returns the account's records in append order. Malformed storage reads as empty.
func (l *Log) List(ctx context.Context, account string) ([]model.SignatureRecord, error) {
	var records []model.SignatureRecord
	if _, err := storage.GetJSON(ctx, l.store, keyPrefix+account, &records); err != nil {
		if storage.IsReadError(err) {
			l.logger.Warn("treating malformed signature log as empty", logging.Account(account), zap.Error(err))
			return []model.SignatureRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}
	if records == nil {
		records = []model.SignatureRecord{}
	}
	return records, nil
}

// Get returns one record by id
func (l *Log) Get(ctx context.Context, account, id string) (model.SignatureRecord, error) {
	records, err := l.List(ctx, account)
	if err != nil {
		return model.SignatureRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.SignatureRecord{}, ErrNotFound
}

// Search returns records whose operation, signature or id contains term (case-insensitive)
func (l *Log) Search(ctx context.Context, account, term string) ([]model.SignatureRecord, error) {
	records, err := l.List(ctx, account)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records, nil
	}

	out := make([]model.SignatureRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(string(rec.Operation)), term) ||
			strings.Contains(strings.ToLower(rec.Signature), term) ||
			strings.Contains(strings.ToLower(rec.ID), term) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Export returns the account's log as indented JSON
func (l *Log) Export(ctx context.Context, account string) ([]byte, error) {
	records, err := l.List(ctx, account)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signatures: %w", err)
	}
	return data, nil
}

// Stats counts records by status
func Stats(records []model.SignatureRecord) model.SignatureStats {
	stats := model.SignatureStats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case model.SignatureVerified:
			stats.Verified++
		case model.SignaturePending:
			stats.Pending++
		case model.SignatureFailed:
			stats.Failed++
		}
	}
	return stats
}

// Inspect runs the validation checks on one record.
// Cryptographic validity is left undecided (nil) for signatures that cannot be verified.
func (l *Log) Inspect(ctx context.Context, account, id string) (*model.InspectionResponse, error) {
	rec, err := l.Get(ctx, account, id)
	if err != nil {
		return nil, err
	}

	sig := signing.Signature{Value: rec.Signature, Scheme: rec.Scheme, Simulated: rec.Simulated}
	checks := make([]model.CheckResult, 0, 4)

	checks = append(checks, model.CheckResult{
		Name:   "Signature Format",
		Passed: boolPtr(rec.Signature != "" && signing.WellFormed(sig)),
		Detail: "scheme " + rec.Scheme,
	})

	validity := model.CheckResult{Name: "Cryptographic Validity"}
	switch ok, verr := signing.Verify(sig, rec.Account, rec.Message); {
	case errors.Is(verr, signing.ErrNotVerifiable):
		if rec.Simulated {
			validity.Detail = "simulated signature, not cryptographically verifiable"
		} else {
			validity.Detail = "scheme " + rec.Scheme + " cannot be verified locally"
		}
	case verr != nil:
		validity.Passed = boolPtr(false)
		validity.Detail = verr.Error()
	default:
		validity.Passed = boolPtr(ok)
		validity.Detail = "ed25519 signature checked against account public key"
	}
	checks = append(checks, validity)

	now := l.now()
	checks = append(checks, model.CheckResult{
		Name:   "Timestamp Integrity",
		Passed: boolPtr(!rec.Timestamp.IsZero() && !rec.Timestamp.After(now.Add(clockSkew))),
		Detail: rec.Timestamp.UTC().Format(time.RFC3339),
	})

	checks = append(checks, model.CheckResult{
		Name:   "Operation Matching",
		Passed: boolPtr(rec.Operation.Valid() && strings.Contains(rec.Message, "Type: "+string(rec.Operation))),
		Detail: string(rec.Operation),
	})

	return &model.InspectionResponse{Record: rec, Checks: checks}, nil
}

func (l *Log) malformed(account string) func(error) {
	return func(err error) {
		l.logger.Warn("discarding malformed signature log", logging.Account(account), zap.Error(err))
	}
}

func boolPtr(b bool) *bool {
	return &b
}
