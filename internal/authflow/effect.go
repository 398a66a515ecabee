package authflow

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var effectSteps = map[model.OperationType][]string{
	model.OperationBlockchainCreation: {
		"Initializing phantom network",
		"Configuring consensus parameters",
		"Spawning validator nodes",
		"Generating genesis block",
	},
	model.OperationTokenCreation: {
		"Compiling token contract",
		"Deploying token contract",
		"Minting initial supply",
	},
	model.OperationBlockchainDeployment: {
		"Packaging chain configuration",
		"Provisioning nodes",
		"Starting network",
		"Running health checks",
	},
	model.OperationTokenDistribution: {
		"Validating recipients",
		"Building distribution batch",
		"Broadcasting transfers",
	},
}

// EffectResult is what a completed effect changed
type EffectResult struct {
	Steps   []string
	Reward  decimal.Decimal
	Bonus   decimal.Decimal
	Balance decimal.Decimal
}

// ExecuteEffect runs the operation's processing steps, then sets its completion
// flag and credits the reward (plus the suite bonus when this finishes a suite).
// A failing step returns *ExecutionError and credits nothing. When a credit
// fails the completion is undone so the operation can be retried.
func (f *Flow) ExecuteEffect(ctx context.Context, account string, t model.OperationType, failureRate float64) (*EffectResult, error) {
	steps, ok := effectSteps[t]
	if !ok {
		return nil, &ExecutionError{Operation: t, Err: fmt.Errorf("no effect for %s", t)}
	}

	res := &EffectResult{Steps: make([]string, 0, len(steps)), Bonus: decimal.Zero}
	for _, step := range steps {
		if err := f.sleep(ctx, f.cfg.StepDelay); err != nil {
			return res, &ExecutionError{Operation: t, Err: err}
		}
		res.Steps = append(res.Steps, step)
	}
	if failureRate > 0 && f.rand() < failureRate {
		return res, &ExecutionError{Operation: t, Err: ErrSimulatedFailure}
	}

	prev, suiteDone, err := f.markCompleted(ctx, account, t)
	if err != nil {
		return res, &ExecutionError{Operation: t, Err: err}
	}

	res.Reward = rewards.Reward(t)
	res.Balance, err = f.ledger.Credit(ctx, account, res.Reward)
	if err != nil {
		f.restoreProgress(ctx, account, prev)
		return res, &ExecutionError{Operation: t, Err: err}
	}
	if suiteDone {
		res.Bonus = rewards.SuiteBonus
		res.Balance, err = f.ledger.Credit(ctx, account, res.Bonus)
		if err != nil {
			if _, _, refundErr := f.ledger.Spend(ctx, account, res.Reward); refundErr != nil {
				f.logger.Error("failed to take back reward", logging.Account(account), zap.Error(refundErr))
			}
			f.restoreProgress(ctx, account, prev)
			return res, &ExecutionError{Operation: t, Err: err}
		}
		f.logger.Info("suite bonus credited", logging.Account(account), zap.String("bonus", res.Bonus.String()))
	}
	return res, nil
}
