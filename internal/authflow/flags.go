package authflow

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"go.uber.org/zap"
)

const flagsKeyPrefix = "phan_flags_"

// flagState is the persisted per-account operation progress
type flagState struct {
	Completed       map[model.OperationType]bool `json:"completed"`
	SuiteProgress   []model.OperationType        `json:"suiteProgress"`
	SuitesCompleted int                          `json:"suitesCompleted"`
	Activity        bool                         `json:"activity"`
}

func (f *Flow) readFlags(ctx context.Context, account string) (flagState, error) {
	var st flagState
	if _, err := storage.GetJSON(ctx, f.store, flagsKeyPrefix+account, &st); err != nil {
		if !storage.IsReadError(err) {
			return flagState{}, fmt.Errorf("failed to read operation flags: %w", err)
		}
		f.logger.Warn("treating malformed operation flags as empty", logging.Account(account), zap.Error(err))
		st = flagState{}
	}
	if st.Completed == nil {
		st.Completed = map[model.OperationType]bool{}
	}
	if st.SuiteProgress == nil {
		st.SuiteProgress = []model.OperationType{}
	}
	return st, nil
}

func (f *Flow) updateFlags(ctx context.Context, account string, fn func(st *flagState)) error {
	return storage.UpdateJSON(ctx, f.store, flagsKeyPrefix+account,
		func(err error) {
			f.logger.Warn("overwriting malformed operation flags", logging.Account(account), zap.Error(err))
		},
		func(st flagState, _ bool) (flagState, error) {
			if st.Completed == nil {
				st.Completed = map[model.OperationType]bool{}
			}
			fn(&st)
			return st, nil
		})
}

func (f *Flow) markActivity(ctx context.Context, account string) error {
	return f.updateFlags(ctx, account, func(st *flagState) {
		st.Activity = true
	})
}

// markCompleted sets the type's flag and advances suite progress.
// It reports whether this completion finished a suite, and returns the
// progress it replaced so a failed credit can restore it.
func (f *Flow) markCompleted(ctx context.Context, account string, t model.OperationType) (flagState, bool, error) {
	var prev flagState
	suiteDone := false
	err := f.updateFlags(ctx, account, func(st *flagState) {
		prev = flagState{
			Completed:       maps.Clone(st.Completed),
			SuiteProgress:   slices.Clone(st.SuiteProgress),
			SuitesCompleted: st.SuitesCompleted,
		}
		st.Completed[t] = true
		if !slices.Contains(st.SuiteProgress, t) {
			st.SuiteProgress = append(st.SuiteProgress, t)
		}
		suiteDone = false
		if len(st.SuiteProgress) == len(model.OperationTypes) {
			suiteDone = true
			st.SuiteProgress = nil
			st.SuitesCompleted++
		}
	})
	return prev, suiteDone, err
}

// restoreProgress puts back the progress replaced by markCompleted. The
// activity flag is left as is.
func (f *Flow) restoreProgress(ctx context.Context, account string, prev flagState) {
	err := f.updateFlags(ctx, account, func(st *flagState) {
		st.Completed = prev.Completed
		st.SuiteProgress = prev.SuiteProgress
		st.SuitesCompleted = prev.SuitesCompleted
	})
	if err != nil {
		f.logger.Error("failed to restore operation flags", logging.Account(account), zap.Error(err))
	}
}

// Flags returns the operation progress of the connected account
func (f *Flow) Flags(ctx context.Context) (*model.FlagsResponse, error) {
	account, err := f.wallet.Account()
	if err != nil {
		return nil, err
	}
	st, err := f.readFlags(ctx, account)
	if err != nil {
		return nil, err
	}

	completed := make(map[model.OperationType]bool, len(model.OperationTypes))
	for _, t := range model.OperationTypes {
		completed[t] = st.Completed[t]
	}
	return &model.FlagsResponse{
		Account:         account,
		Completed:       completed,
		SuiteProgress:   st.SuiteProgress,
		SuitesCompleted: st.SuitesCompleted,
		HasActivity:     st.Activity,
	}, nil
}
