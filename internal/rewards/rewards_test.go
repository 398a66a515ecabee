package rewards

import (
	"context"
	"sync"
	"testing"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const acct = "0xabc0000000000000000000000000000000000001"

func newLedger(t *testing.T) (*Ledger, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	return NewLedger(store, zap.NewNop()), store
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRewardTable(t *testing.T) {
	assert.True(t, d(100).Equal(Reward(model.OperationBlockchainCreation)))
	assert.True(t, d(75).Equal(Reward(model.OperationBlockchainDeployment)))
	assert.True(t, d(50).Equal(Reward(model.OperationTokenCreation)))
	assert.True(t, d(25).Equal(Reward(model.OperationTokenDistribution)))

	sum := SuiteBonus
	for _, op := range model.OperationTypes {
		sum = sum.Add(Reward(op))
	}
	assert.Equal(t, "400", sum.String())
}

func TestRank(t *testing.T) {
	assert.Equal(t, 1, Rank(d(0)))
	assert.Equal(t, 1, Rank(d(99)))
	assert.Equal(t, 2, Rank(d(100)))
	assert.Equal(t, 5, Rank(d(450)))
}

func TestCreditAndBalance(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	bal, err := l.Balance(ctx, acct)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	bal, err = l.Credit(ctx, acct, d(100))
	require.NoError(t, err)
	assert.Equal(t, "100", bal.String())

	_, err = l.Credit(ctx, acct, d(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	other, err := l.Balance(ctx, "0xother")
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}

func TestSpend(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	_, err := l.Credit(ctx, acct, d(150))
	require.NoError(t, err)

	ok, bal, err := l.Spend(ctx, acct, d(300))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "150", bal.String())

	ok, bal, err = l.Spend(ctx, acct, decimal.RequireFromString("49.5"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100.5", bal.String())

	for _, amount := range []decimal.Decimal{d(0), d(-1)} {
		ok, _, err = l.Spend(ctx, acct, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, amount.String())
		assert.False(t, ok)
	}
	bal, err = l.Balance(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "100.5", bal.String())
}

func TestConcurrentCreditsAreNotLost(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Credit(ctx, acct, d(25))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bal, err := l.Balance(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "1250", bal.String())
}

func TestUnlockScenario(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Credit(ctx, acct, Reward(model.OperationBlockchainCreation))
	require.NoError(t, err)
	_, err = l.Credit(ctx, acct, Reward(model.OperationTokenCreation))
	require.NoError(t, err)

	bal, err := l.Unlock(ctx, acct, "advanced_security_tests")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "150", bal.String())

	for _, amount := range []decimal.Decimal{
		Reward(model.OperationBlockchainDeployment),
		Reward(model.OperationTokenDistribution),
		SuiteBonus,
	} {
		_, err = l.Credit(ctx, acct, amount)
		require.NoError(t, err)
	}
	bal, err = l.Balance(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "400", bal.String())

	bal, err = l.Unlock(ctx, acct, "advanced_security_tests")
	require.NoError(t, err)
	assert.Equal(t, "100", bal.String())

	_, err = l.Unlock(ctx, acct, "advanced_security_tests")
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)

	_, err = l.Unlock(ctx, acct, "teleportation")
	assert.ErrorIs(t, err, ErrUnknownFeature)

	summary, err := l.Summary(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "100", summary.Balance)
	assert.Equal(t, 2, summary.Rank)
	require.Len(t, summary.Features, len(Catalog))
	for _, f := range summary.Features {
		assert.Equal(t, f.ID == "advanced_security_tests", f.Unlocked, f.ID)
	}
}

func TestMalformedBalanceReadsAsZero(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, balanceKeyPrefix+acct, []byte("{not json")))

	bal, err := l.Balance(ctx, acct)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	bal, err = l.Credit(ctx, acct, d(25))
	require.NoError(t, err)
	assert.Equal(t, "25", bal.String())
}

func TestMalformedFeaturesReadAsEmpty(t *testing.T) {
	l, store := newLedger(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, featuresKeyPrefix+acct, []byte("42")))

	ids, err := l.Unlocked(ctx, acct)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
