package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.EventMessage
	err  error
}

func (f *fakePublisher) PublishEvent(_ context.Context, msg *amqp.EventMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Type)
	}
	return out
}

func quietLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelDebug, Format: "text", Component: applog.ComponentApp, Output: buf})
}

func newService(t *testing.T, pub EventPublisher) (*LedgerService, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewLedgerService(pub, quietLogger(&buf), false), &buf
}

func TestAddTransactionPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc, logs := newService(t, pub)
	ctx := context.Background()

	tx, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "1000", Kind: core.Income})
	require.NoError(t, err)
	assert.Equal(t, "Salary", tx.Category)

	require.Equal(t, []string{amqp.EventTransactionAdded}, pub.types())
	msg := pub.msgs[0]
	assert.Equal(t, 0, msg.Index)
	assert.Equal(t, "Income", msg.Kind)
	assert.True(t, msg.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, uint64(1), msg.Version)
	assert.Contains(t, logs.String(), "Transaction recorded")
}

func TestAddTransactionErrorsAreWrapped(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Food", Amount: "5", Kind: core.Expense})
	assert.ErrorIs(t, err, core.ErrIncomeRequired)

	_, err = svc.AddTransaction(ctx, NewTransaction{Date: "01/01/2024", Category: "Salary", Amount: "5", Kind: core.Income})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "0", Kind: core.Income})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	assert.Empty(t, pub.types())
	assert.Equal(t, uint64(0), svc.Version())
}

func TestRemoveLastIncomeSignalsGate(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "100", Kind: core.Income})
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-02", Category: "Food", Amount: "30", Kind: core.Expense})
	require.NoError(t, err)

	res, err := svc.RemoveTransaction(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.IncomeRequired)

	_, err = svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-03", Category: "Food", Amount: "10", Kind: core.Expense})
	require.NoError(t, err)

	res, err = svc.RemoveTransaction(ctx, 0)
	require.NoError(t, err)
	assert.True(t, res.IncomeRequired)
	assert.Equal(t, core.Income, res.Removed.Kind)

	snap := svc.Snapshot(ctx)
	assert.False(t, snap.HasIncome)
	assert.Equal(t, []core.Kind{core.Income}, snap.AllowedKinds())
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(-10)))

	assert.Equal(t, []string{
		amqp.EventTransactionAdded,
		amqp.EventTransactionAdded,
		amqp.EventTransactionRemoved,
		amqp.EventTransactionAdded,
		amqp.EventTransactionRemoved,
		amqp.EventIncomeRequired,
	}, pub.types())
}

func TestRemoveOutOfRange(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.RemoveTransaction(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
	assert.Equal(t, uint64(0), svc.Version())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, logs := newService(t, pub)

	_, err := svc.AddTransaction(context.Background(), NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "1", Kind: core.Income})
	require.NoError(t, err)
	assert.Equal(t, 1, len(svc.Snapshot(context.Background()).Transactions))
	assert.Contains(t, logs.String(), "Failed to publish ledger event")
}

func TestSnapshotIsACopy(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	_, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "1", Kind: core.Income})
	require.NoError(t, err)

	snap := svc.Snapshot(ctx)
	snap.Transactions[0].Category = "changed"
	assert.Equal(t, "Salary", svc.Snapshot(ctx).Transactions[0].Category)
	assert.Equal(t, []core.Kind{core.Income, core.Expense}, snap.AllowedKinds())
}

func TestDerivedQueriesCarryVersion(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	_, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-02", Category: "Salary", Amount: "100", Kind: core.Income})
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Food", Amount: "40", Kind: core.Expense})
	require.NoError(t, err)

	summary, v := svc.CategorySummary(ctx)
	assert.Equal(t, uint64(2), v)
	assert.True(t, summary["Food"].Equal(decimal.NewFromInt(40)))

	series, v := svc.BalanceSeries(ctx)
	assert.Equal(t, uint64(2), v)
	require.Len(t, series, 2)
	assert.True(t, series[0].Balance.Equal(decimal.NewFromInt(-40)))
	assert.True(t, series[1].Balance.Equal(decimal.NewFromInt(60)))
}

func TestConcurrentAccessIsSerialised(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	_, err := svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-01", Category: "Salary", Amount: "1000", Kind: core.Income})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.AddTransaction(ctx, NewTransaction{Date: "2024-01-02", Category: "Food", Amount: "1", Kind: core.Expense})
		}()
		go func() {
			defer wg.Done()
			_ = svc.Snapshot(ctx)
		}()
	}
	wg.Wait()

	snap := svc.Snapshot(ctx)
	assert.Len(t, snap.Transactions, 51)
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(950)))
	assert.Equal(t, uint64(51), snap.Version)
}
