// Package rewards keeps the per-account PHAN balance and the premium features bought with it.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	balanceKeyPrefix  = "phan_balance_"
	featuresKeyPrefix = "phan_features_"
)

var (
	ErrInsufficientBalance = errors.New("insufficient PHAN balance")
	ErrUnknownFeature      = errors.New("unknown feature")
	ErrAlreadyUnlocked     = errors.New("feature already unlocked")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

// FeatureDef is a premium feature and its price in PHAN
type FeatureDef struct {
	ID   string
	Name string
	Cost decimal.Decimal
}

// Catalog lists the purchasable features
var Catalog = []FeatureDef{
	{ID: "premium_analytics", Name: "Premium Analytics", Cost: decimal.NewFromInt(500)},
	{ID: "advanced_security_tests", Name: "Advanced Security Tests", Cost: decimal.NewFromInt(300)},
	{ID: "custom_network_topologies", Name: "Custom Network Topologies", Cost: decimal.NewFromInt(200)},
	{ID: "priority_support", Name: "Priority Support", Cost: decimal.NewFromInt(1000)},
}

// SuiteBonus is paid once every operation type has completed
var SuiteBonus = decimal.NewFromInt(150)

var rewardTable = map[model.OperationType]decimal.Decimal{
	model.OperationBlockchainCreation:   decimal.NewFromInt(100),
	model.OperationBlockchainDeployment: decimal.NewFromInt(75),
	model.OperationTokenCreation:        decimal.NewFromInt(50),
	model.OperationTokenDistribution:    decimal.NewFromInt(25),
}

// Reward returns the PHAN credited for completing an operation of type t
func Reward(t model.OperationType) decimal.Decimal {
	return rewardTable[t]
}

// Rank is the leaderboard position shown for a balance: floor(balance/100)+1
func Rank(balance decimal.Decimal) int {
	if balance.IsNegative() {
		return 1
	}
	return int(balance.Div(decimal.NewFromInt(100)).Floor().IntPart()) + 1
}

// Ledger persists PHAN balances and unlocked features per account
type Ledger struct {
	store  storage.Store
	logger *zap.Logger

	// serializes Unlock, which spans two keys
	unlockMu sync.Mutex
}

// NewLedger creates a ledger over store
func NewLedger(store storage.Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, logger: logger.Named("rewards")}
}

// Balance returns the account's PHAN balance; a malformed stored value reads as zero
func (l *Ledger) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	if _, err := storage.GetJSON(ctx, l.store, balanceKeyPrefix+account, &bal); err != nil {
		if storage.IsReadError(err) {
			l.logger.Warn("treating malformed balance as zero", logging.Account(account), zap.Error(err))
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal, nil
}

// Credit adds amount to the balance and returns the new balance
func (l *Ledger) Credit(ctx context.Context, account string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	var next decimal.Decimal
	err := storage.UpdateJSON(ctx, l.store, balanceKeyPrefix+account, l.malformed(account),
		func(cur decimal.Decimal, _ bool) (decimal.Decimal, error) {
			next = cur.Add(amount)
			return next, nil
		})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit balance: %w", err)
	}

	l.logger.Info("PHAN credited", logging.Account(account),
		zap.String("amount", amount.String()), zap.String("balance", next.String()))
	return next, nil
}

// Spend debits amount when the balance covers it. It returns false and leaves
// the balance unchanged otherwise.
func (l *Ledger) Spend(ctx context.Context, account string, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return false, decimal.Zero, ErrInvalidAmount
	}

	var bal decimal.Decimal
	err := storage.UpdateJSON(ctx, l.store, balanceKeyPrefix+account, l.malformed(account),
		func(cur decimal.Decimal, _ bool) (decimal.Decimal, error) {
			bal = cur
			if cur.LessThan(amount) {
				return cur, ErrInsufficientBalance
			}
			bal = cur.Sub(amount)
			return bal, nil
		})
	if errors.Is(err, ErrInsufficientBalance) {
		return false, bal, nil
	}
	if err != nil {
		return false, decimal.Zero, fmt.Errorf("failed to spend balance: %w", err)
	}

	l.logger.Info("PHAN spent", logging.Account(account),
		zap.String("amount", amount.String()), zap.String("balance", bal.String()))
	return true, bal, nil
}

// Unlock buys a catalog feature and returns the remaining balance
func (l *Ledger) Unlock(ctx context.Context, account, featureID string) (decimal.Decimal, error) {
	def, ok := findFeature(featureID)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownFeature, featureID)
	}

	l.unlockMu.Lock()
	defer l.unlockMu.Unlock()

	unlocked, err := l.Unlocked(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	if slices.Contains(unlocked, featureID) {
		return decimal.Zero, ErrAlreadyUnlocked
	}

	spent, bal, err := l.Spend(ctx, account, def.Cost)
	if err != nil {
		return decimal.Zero, err
	}
	if !spent {
		return bal, ErrInsufficientBalance
	}

	err = storage.UpdateJSON(ctx, l.store, featuresKeyPrefix+account, l.malformed(account),
		func(cur []string, _ bool) ([]string, error) {
			if slices.Contains(cur, featureID) {
				return cur, nil
			}
			return append(cur, featureID), nil
		})
	if err != nil {
		if _, refundErr := l.Credit(ctx, account, def.Cost); refundErr != nil {
			l.logger.Error("failed to refund feature purchase", logging.Account(account), zap.Error(refundErr))
		}
		return decimal.Zero, fmt.Errorf("failed to record feature: %w", err)
	}

	l.logger.Info("feature unlocked", logging.Account(account), zap.String("feature", featureID))
	return bal, nil
}

// Unlocked returns the feature ids the account has bought
func (l *Ledger) Unlocked(ctx context.Context, account string) ([]string, error) {
	var ids []string
	if _, err := storage.GetJSON(ctx, l.store, featuresKeyPrefix+account, &ids); err != nil {
		if storage.IsReadError(err) {
			l.logger.Warn("treating malformed feature list as empty", logging.Account(account), zap.Error(err))
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read features: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Summary builds the rewards view for an account
func (l *Ledger) Summary(ctx context.Context, account string) (*model.RewardsResponse, error) {
	bal, err := l.Balance(ctx, account)
	if err != nil {
		return nil, err
	}
	unlocked, err := l.Unlocked(ctx, account)
	if err != nil {
		return nil, err
	}

	features := make([]model.Feature, 0, len(Catalog))
	for _, def := range Catalog {
		features = append(features, model.Feature{
			ID:       def.ID,
			Name:     def.Name,
			Cost:     def.Cost.String(),
			Unlocked: slices.Contains(unlocked, def.ID),
		})
	}

	return &model.RewardsResponse{
		Account:  account,
		Balance:  bal.String(),
		Rank:     Rank(bal),
		Features: features,
	}, nil
}

func (l *Ledger) malformed(account string) func(error) {
	return func(err error) {
		l.logger.Warn("overwriting malformed value", logging.Account(account), zap.Error(err))
	}
}

func findFeature(id string) (FeatureDef, bool) {
	for _, def := range Catalog {
		if def.ID == id {
			return def, true
		}
	}
	return FeatureDef{}, false
}
