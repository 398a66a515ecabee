package authflow

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RunStressTest runs every operation type once, in suite order, through the
// regular authorization flow using the stress failure rate. Completion flags
// do not block a stress run.
func (f *Flow) RunStressTest(ctx context.Context) (*model.StressTestResponse, error) {
	account, err := f.wallet.Account()
	if err != nil {
		return nil, err
	}
	if !f.acquire(account) {
		return nil, ErrOperationInProgress
	}
	defer f.release(account)

	suiteID := f.newID()
	resp := &model.StressTestResponse{
		Results: make([]model.TestResult, 0, len(model.OperationTypes)),
		Bonus:   decimal.Zero.String(),
	}

	var (
		successes int
		total     int64
		bonus     = decimal.Zero
	)
	for i, t := range model.OperationTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		desc := model.OperationDescriptor{
			Type:        t,
			Title:       "Stress Test: " + t.Label(),
			Description: "Automated " + t.Label() + " run",
			Details: map[string]any{
				"suite": suiteID,
				"index": i,
			},
		}

		a := f.run(ctx, account, desc, f.cfg.StressFailureRate)
		duration := a.FinishedAt.Sub(a.StartedAt).Milliseconds()
		total += duration

		result := model.TestResult{
			ID:        fmt.Sprintf("test-%s-%d", suiteID, i),
			Type:      t,
			Timestamp: a.StartedAt,
			Duration:  duration,
		}
		if a.State == model.AttemptCompleted {
			successes++
			result.Status = "success"
			result.Details = t.Label() + " completed successfully"
			bonus = bonus.Add(a.Effect.Bonus)
		} else {
			result.Status = "failed"
			result.Details = fmt.Sprintf("%s failed - retry recommended: %v", t.Label(), a.Err)
		}
		resp.Results = append(resp.Results, result)
	}

	resp.SuccessRate = successes * 100 / len(model.OperationTypes)
	resp.AvgDuration = total / int64(len(model.OperationTypes))
	resp.Bonus = bonus.String()

	balance, err := f.ledger.Balance(ctx, account)
	if err != nil {
		return nil, err
	}
	resp.Balance = balance.String()

	f.logger.Info("stress test finished", logging.Account(account),
		zap.Int("success_rate", resp.SuccessRate), zap.String("bonus", resp.Bonus))
	return resp, nil
}
