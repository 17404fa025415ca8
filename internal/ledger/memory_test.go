package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Memory {
	t.Helper()
	l, err := NewMemory([]models.Account{
		{ID: "user_001", Food: decimal.NewFromInt(500), Meal: decimal.NewFromInt(300), Cash: decimal.NewFromInt(1000)},
		{ID: "user_002", Food: decimal.NewFromInt(400), Meal: decimal.NewFromInt(250), Cash: decimal.NewFromInt(1200)},
	})
	require.NoError(t, err)
	return l
}

func TestMemory_GetBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tests := []struct {
		category models.Category
		want     int64
	}{
		{models.CategoryFood, 500},
		{models.CategoryMeal, 300},
		{models.CategoryCash, 1000},
		{models.CategoryOther, 1000},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got, err := l.GetBalance(ctx, "user_001", tt.category)
			require.NoError(t, err)
			require.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := l.GetBalance(ctx, "nobody", models.CategoryFood)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemory_Deduct(t *testing.T) {
	ctx := context.Background()

	t.Run("exact subtraction", func(t *testing.T) {
		l := newTestLedger(t)
		ok, err := l.Deduct(ctx, "user_001", models.CategoryMeal, decimal.RequireFromString("100.25"))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := l.GetBalance(ctx, "user_001", models.CategoryMeal)
		require.NoError(t, err)
		require.Equal(t, "199.75", got.StringFixed(2))
	})

	t.Run("whole balance", func(t *testing.T) {
		l := newTestLedger(t)
		ok, err := l.Deduct(ctx, "user_001", models.CategoryFood, decimal.NewFromInt(500))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := l.GetBalance(ctx, "user_001", models.CategoryFood)
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})

	t.Run("insufficient leaves balance untouched", func(t *testing.T) {
		l := newTestLedger(t)
		ok, err := l.Deduct(ctx, "user_001", models.CategoryMeal, decimal.RequireFromString("300.01"))
		require.NoError(t, err)
		require.False(t, ok)

		got, err := l.GetBalance(ctx, "user_001", models.CategoryMeal)
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(300).Equal(got))
	})

	t.Run("other is paid from cash", func(t *testing.T) {
		l := newTestLedger(t)
		ok, err := l.Deduct(ctx, "user_002", models.CategoryOther, decimal.NewFromInt(200))
		require.NoError(t, err)
		require.True(t, ok)

		a, err := l.GetAccount(ctx, "user_002")
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(1000).Equal(a.Cash))
	})

	t.Run("unknown account", func(t *testing.T) {
		l := newTestLedger(t)
		_, err := l.Deduct(ctx, "nobody", models.CategoryCash, decimal.NewFromInt(1))
		require.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("non positive amount", func(t *testing.T) {
		l := newTestLedger(t)
		_, err := l.Deduct(ctx, "user_001", models.CategoryCash, decimal.Zero)
		require.ErrorIs(t, err, ErrInvalidAmount)
		_, err = l.Deduct(ctx, "user_001", models.CategoryCash, decimal.NewFromInt(-5))
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("fraction of a cent", func(t *testing.T) {
		l := newTestLedger(t)
		ok, err := l.Deduct(ctx, "user_001", models.CategoryCash, decimal.RequireFromString("0.004"))
		require.ErrorIs(t, err, ErrInvalidAmount)
		require.False(t, ok)

		got, err := l.GetBalance(ctx, "user_001", models.CategoryCash)
		require.NoError(t, err)
		require.Equal(t, "1000.00", got.StringFixed(2))
	})
}

func TestMemory_ConcurrentDeductNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	const workers = 150
	var approved atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Deduct(ctx, "user_001", models.CategoryCash, decimal.NewFromInt(10))
			if err == nil && ok {
				approved.Add(1)
			}
		}()
	}
	wg.Wait()

	// 1000 / 10 deductions fit, the rest must fail
	require.Equal(t, int64(100), approved.Load())
	got, err := l.GetBalance(ctx, "user_001", models.CategoryCash)
	require.NoError(t, err)
	require.True(t, got.IsZero(), "got %s", got)
}

func TestMemory_GetAccountReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	a, err := l.GetAccount(ctx, "user_001")
	require.NoError(t, err)
	a.Cash = decimal.Zero

	got, err := l.GetBalance(ctx, "user_001", models.CategoryCash)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1000).Equal(got))
}

func TestMemory_ListAccountsSorted(t *testing.T) {
	l, err := NewMemory([]models.Account{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	require.NoError(t, err)

	accounts, err := l.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, "a", accounts[0].ID)
	require.Equal(t, "c", accounts[2].ID)
}

func TestNewMemory_RejectsBadSeed(t *testing.T) {
	_, err := NewMemory([]models.Account{{ID: "a"}, {ID: "a"}})
	require.Error(t, err)

	_, err = NewMemory([]models.Account{{ID: ""}})
	require.Error(t, err)

	_, err = NewMemory([]models.Account{{ID: "a", Meal: decimal.NewFromInt(-1)}})
	require.Error(t, err)
}
