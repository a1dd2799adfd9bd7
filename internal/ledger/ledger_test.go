package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/catalog"
)

// --- Setup & Helpers --------------------------------------------------------

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(catalog.MustNew(catalog.DefaultSeed()))
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func balanceOf(t *testing.T, l *Ledger, userID int) int64 {
	t.Helper()
	u, ok := l.Catalog().GetUser(userID)
	require.True(t, ok, "user %d", userID)
	return u.Balance
}

type ledgerState struct {
	users           []catalog.User
	purchasesByUser map[int][]int
	buyersByProduct map[int][]int
}

func snapshot(l *Ledger) ledgerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := ledgerState{
		users:           l.catalog.ListUsers(),
		purchasesByUser: map[int][]int{},
		buyersByProduct: map[int][]int{},
	}
	for k, v := range l.purchasesByUser {
		st.purchasesByUser[k] = append([]int(nil), v...)
	}
	for k, v := range l.buyersByProduct {
		st.buyersByProduct[k] = append([]int(nil), v...)
	}
	return st
}

func productIDs(ps []catalog.Product) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func userIDs(us []catalog.User) []int {
	out := make([]int, 0, len(us))
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

// --- Scenarios --------------------------------------------------------------

func TestPurchase_InsufficientFunds(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Purchase(context.Background(), 1, 1)

	require.ErrorIs(t, err, ErrInsufficientFunds)
	var funds *InsufficientFundsError
	require.True(t, errors.As(err, &funds))
	assert.Equal(t, int64(100), funds.Balance)
	assert.Equal(t, int64(125), funds.Price)
	assert.Equal(t, int64(25), funds.Shortfall())

	assert.Equal(t, int64(100), balanceOf(t, l, 1))
	assert.Empty(t, l.ProductsOf(1))
	assert.Empty(t, l.BuyersOf(1))
}

func TestPurchase_Success(t *testing.T) {
	l := newTestLedger(t)

	r, err := l.Purchase(context.Background(), 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, r.UserID)
	assert.Equal(t, 1, r.ProductID)
	assert.Equal(t, int64(125), r.Price)
	assert.Equal(t, int64(11875), r.BalanceAfter)
	assert.Regexp(t, `^pur_[0-9a-f-]{36}$`, r.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), r.CreatedAt)

	assert.Equal(t, int64(11875), balanceOf(t, l, 2))
	assert.Equal(t, []int{2}, userIDs(l.BuyersOf(1)))
	assert.Equal(t, []int{1}, productIDs(l.ProductsOf(2)))
}

func TestPurchase_RepeatPurchaseDedupsBuyers(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Purchase(ctx, 3, 2)
	require.NoError(t, err)
	_, err = l.Purchase(ctx, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(150000-2*6550), balanceOf(t, l, 3))
	assert.Equal(t, []int{2, 2}, productIDs(l.ProductsOf(3)))

	buyers := l.BuyersOf(2)
	require.Len(t, buyers, 1)
	assert.Equal(t, 3, buyers[0].ID)
	assert.Equal(t, int64(136900), buyers[0].Balance)
}

func TestPurchase_UnknownUser(t *testing.T) {
	l := newTestLedger(t)
	before := snapshot(l)

	_, err := l.Purchase(context.Background(), 99, 1)

	require.ErrorIs(t, err, ErrUnknownParty)
	var unknown *UnknownPartyError
	require.True(t, errors.As(err, &unknown))
	assert.True(t, unknown.UserMissing)
	assert.False(t, unknown.ProductMissing)
	assert.Equal(t, before, snapshot(l))
}

func TestPurchase_UnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Purchase(context.Background(), 3, 42)

	var unknown *UnknownPartyError
	require.True(t, errors.As(err, &unknown))
	assert.False(t, unknown.UserMissing)
	assert.True(t, unknown.ProductMissing)
	assert.Equal(t, "unknown product 42", unknown.Error())
	assert.Equal(t, int64(150000), balanceOf(t, l, 3))
}

// --- Properties -------------------------------------------------------------

func TestPurchase_FailureHasNoEffect(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Purchase(ctx, 2, 2)
	require.NoError(t, err)
	_, err = l.Purchase(ctx, 3, 1)
	require.NoError(t, err)

	failing := []struct{ user, product int }{
		{1, 1}, {1, 3}, {2, 3}, {99, 1}, {1, 99}, {0, 0},
	}
	for _, f := range failing {
		before := snapshot(l)
		_, err := l.Purchase(ctx, f.user, f.product)
		require.Error(t, err, "user %d product %d", f.user, f.product)
		assert.Equal(t, before, snapshot(l), "user %d product %d", f.user, f.product)
	}
}

func TestPurchase_BalanceMonotonicity(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Boris keeps buying until he runs out; every success lowers the balance
	// by exactly the price, and the balance never goes negative.
	for i := 0; i < 10; i++ {
		prev := balanceOf(t, l, 2)
		_, err := l.Purchase(ctx, 2, 2)
		cur := balanceOf(t, l, 2)

		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			assert.Equal(t, prev, cur)
		} else {
			assert.Equal(t, prev-6550, cur)
		}
		assert.GreaterOrEqual(t, cur, int64(0))
	}
	assert.Equal(t, int64(12000-6550), balanceOf(t, l, 2))
	assert.Len(t, l.ProductsOf(2), 1)
}

func TestPurchase_ExactBalanceIsEnough(t *testing.T) {
	l := New(catalog.MustNew(catalog.Seed{
		Users:    []catalog.User{{ID: 1, FirstName: "Eve", Balance: 50}},
		Products: []catalog.Product{{ID: 1, Name: "Pen", Price: 50}, {ID: 2, Name: "Gift", Price: 0}},
	}))
	ctx := context.Background()

	r, err := l.Purchase(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, r.BalanceAfter)

	_, err = l.Purchase(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, productIDs(l.ProductsOf(1)))
}

func TestQueries_EmptyForNoHistory(t *testing.T) {
	l := newTestLedger(t)

	for _, id := range []int{1, 2, 3, 99, -1} {
		ps := l.ProductsOf(id)
		assert.NotNil(t, ps)
		assert.Empty(t, ps)

		us := l.BuyersOf(id)
		assert.NotNil(t, us)
		assert.Empty(t, us)
	}
}

func TestBuyersOf_FirstPurchaseOrder(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for _, userID := range []int{3, 2, 3, 2} {
		_, err := l.Purchase(ctx, userID, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, []int{3, 2}, userIDs(l.BuyersOf(1)))
	assert.Equal(t, []int{1, 1}, productIDs(l.ProductsOf(2)))
}

func TestProductsOf_ReturnsCopy(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Purchase(context.Background(), 3, 1)
	require.NoError(t, err)

	ps := l.ProductsOf(3)
	ps[0].Price = 0

	assert.Equal(t, int64(125), l.ProductsOf(3)[0].Price)
}

func TestPurchase_ConcurrentNeverOverdraws(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// 12000 / 125 = 96 affordable apples for Boris.
	const attempts = 200
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Purchase(ctx, 2, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 96, ok)
	assert.Equal(t, int64(0), balanceOf(t, l, 2))
	assert.Len(t, l.ProductsOf(2), 96)
	assert.Len(t, l.BuyersOf(1), 1)
}
